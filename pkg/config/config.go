package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Ingest struct {
		Backend      string        `yaml:"backend"` // "kafka" or "clickhouse"
		BatchSize    int           `yaml:"batch_size"`
		BatchTimeout time.Duration `yaml:"batch_timeout"`
	} `yaml:"ingest"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	RateShop struct {
		WebSocketURL   string        `yaml:"websocket_url"`
		APIKey         string        `yaml:"api_key"`
		Properties     []string      `yaml:"properties"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
		WindowSize     int           `yaml:"window_size"`     // rate points kept per stay date
		MaxPointAge    time.Duration `yaml:"max_point_age"`   // staleness cutoff for percentiles
	} `yaml:"rateshop"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Pricing  Pricing `yaml:"pricing"`
	Analysis struct {
		MinObservations  int           `yaml:"min_observations"`  // analyzer floor
		MinElasticityN   int           `yaml:"min_elasticity_n"`  // usable rows after log exclusion
		MaxFitIterations int           `yaml:"max_fit_iterations"`
		FitTimeout       time.Duration `yaml:"fit_timeout"`
		DispersionCutoff float64       `yaml:"dispersion_cutoff"` // Poisson -> NB switch
		RefitInterval    time.Duration `yaml:"refit_interval"`
		StalenessWindow  time.Duration `yaml:"staleness_window"`
		WindowDays       int           `yaml:"window_days"`
		MethodWeights    struct {
			Pearson    float64 `yaml:"pearson"`
			Spearman   float64 `yaml:"spearman"`
			MutualInfo float64 `yaml:"mutual_info"`
			Anova      float64 `yaml:"anova"`
		} `yaml:"method_weights"`
	} `yaml:"analysis"`
	Quote struct {
		CacheTTL time.Duration `yaml:"cache_ttl"`
	} `yaml:"quote"`
}

// Pricing holds the rule-based multiplier tables and optimizer shape.
// These are operator-configurable, not compiled-in literals; zero
// values fall back to the documented defaults.
type Pricing struct {
	FallbackBasePrice float64 `yaml:"fallback_base_price"`
	Objective         string  `yaml:"objective"`

	Season struct {
		Winter float64 `yaml:"winter"`
		Spring float64 `yaml:"spring"`
		Summer float64 `yaml:"summer"`
		Autumn float64 `yaml:"autumn"`
	} `yaml:"season"`
	DayOfWeek struct {
		Friday   float64 `yaml:"friday"`
		Saturday float64 `yaml:"saturday"`
		Sunday   float64 `yaml:"sunday"`
	} `yaml:"day_of_week"`
	DemandSlope float64 `yaml:"demand_slope"` // price factor = 1 + occupancy * slope
	LeadTime    struct {
		LastMinuteDays int     `yaml:"last_minute_days"`
		LastMinuteBump float64 `yaml:"last_minute_bump"`
		FarAdvanceDays int     `yaml:"far_advance_days"`
		FarAdvanceTrim float64 `yaml:"far_advance_trim"`
	} `yaml:"lead_time"`
	LongStay struct {
		WeekDiscount  float64 `yaml:"week_discount"`      // >= 7 nights
		Fortnight     float64 `yaml:"fortnight_discount"` // >= 14
		MonthDiscount float64 `yaml:"month_discount"`     // >= 30
	} `yaml:"long_stay"`
	Positioning struct {
		HighOccupancy float64 `yaml:"high_occupancy"` // occupancy >= threshold -> price above p50
		LowOccupancy  float64 `yaml:"low_occupancy"`  // occupancy <= threshold -> price below p50
		HighThreshold float64 `yaml:"high_threshold"`
		LowThreshold  float64 `yaml:"low_threshold"`
	} `yaml:"positioning"`
	Stance struct {
		Aggressive   float64 `yaml:"aggressive"`
		Conservative float64 `yaml:"conservative"`
	} `yaml:"stance"`
	Grid struct {
		Points int     `yaml:"points"`
		Span   float64 `yaml:"span"` // fraction around the adjusted price
	} `yaml:"grid"`
	Bounds struct {
		LowerFactor float64 `yaml:"lower_factor"` // x p10
		UpperFactor float64 `yaml:"upper_factor"` // x p90
	} `yaml:"bounds"`
	PickupFraction float64 `yaml:"pickup_fraction"` // rule-based end-of-window occupancy gain
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("RATESHOP_API_KEY"); v != "" {
		c.RateShop.APIKey = v
	}
	if v := os.Getenv("PROPERTIES"); v != "" {
		c.RateShop.Properties = strings.Split(v, ",")
	}
	if v := os.Getenv("INGEST_BACKEND"); v != "" {
		c.Ingest.Backend = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Analysis.MinObservations <= 0 {
		c.Analysis.MinObservations = 30
	}
	if c.Analysis.MinElasticityN <= 0 {
		c.Analysis.MinElasticityN = 20
	}
	if c.Analysis.MaxFitIterations <= 0 {
		c.Analysis.MaxFitIterations = 50
	}
	if c.Analysis.FitTimeout <= 0 {
		c.Analysis.FitTimeout = 30 * time.Second
	}
	if c.Analysis.DispersionCutoff <= 0 {
		c.Analysis.DispersionCutoff = 1.5
	}
	if c.Analysis.RefitInterval <= 0 {
		c.Analysis.RefitInterval = 24 * time.Hour
	}
	if c.Analysis.StalenessWindow <= 0 {
		c.Analysis.StalenessWindow = 48 * time.Hour
	}
	if c.Analysis.WindowDays <= 0 {
		c.Analysis.WindowDays = 365
	}
	if c.RateShop.WindowSize <= 0 {
		c.RateShop.WindowSize = 200
	}
	if c.RateShop.MaxPointAge <= 0 {
		c.RateShop.MaxPointAge = 6 * time.Hour
	}
	if c.Quote.CacheTTL <= 0 {
		c.Quote.CacheTTL = 30 * time.Second
	}
	c.Pricing.applyDefaults()
}

func (p *Pricing) applyDefaults() {
	if p.FallbackBasePrice <= 0 {
		p.FallbackBasePrice = 100
	}
	if p.Objective == "" {
		p.Objective = "balanced"
	}
	if p.Season.Winter <= 0 {
		p.Season.Winter = 0.9
	}
	if p.Season.Spring <= 0 {
		p.Season.Spring = 1.0
	}
	if p.Season.Summer <= 0 {
		p.Season.Summer = 1.3
	}
	if p.Season.Autumn <= 0 {
		p.Season.Autumn = 1.1
	}
	if p.DayOfWeek.Friday <= 0 {
		p.DayOfWeek.Friday = 1.15
	}
	if p.DayOfWeek.Saturday <= 0 {
		p.DayOfWeek.Saturday = 1.25
	}
	if p.DayOfWeek.Sunday <= 0 {
		p.DayOfWeek.Sunday = 1.10
	}
	if p.DemandSlope <= 0 {
		p.DemandSlope = 0.5
	}
	if p.LeadTime.LastMinuteDays <= 0 {
		p.LeadTime.LastMinuteDays = 7
	}
	if p.LeadTime.LastMinuteBump <= 0 {
		p.LeadTime.LastMinuteBump = 1.20
	}
	if p.LeadTime.FarAdvanceDays <= 0 {
		p.LeadTime.FarAdvanceDays = 90
	}
	if p.LeadTime.FarAdvanceTrim <= 0 {
		p.LeadTime.FarAdvanceTrim = 0.90
	}
	if p.LongStay.WeekDiscount <= 0 {
		p.LongStay.WeekDiscount = 0.90
	}
	if p.LongStay.Fortnight <= 0 {
		p.LongStay.Fortnight = 0.85
	}
	if p.LongStay.MonthDiscount <= 0 {
		p.LongStay.MonthDiscount = 0.80
	}
	if p.Positioning.HighOccupancy <= 0 {
		p.Positioning.HighOccupancy = 1.10
	}
	if p.Positioning.LowOccupancy <= 0 {
		p.Positioning.LowOccupancy = 0.95
	}
	if p.Positioning.HighThreshold <= 0 {
		p.Positioning.HighThreshold = 0.7
	}
	if p.Positioning.LowThreshold <= 0 {
		p.Positioning.LowThreshold = 0.3
	}
	if p.Stance.Aggressive <= 0 {
		p.Stance.Aggressive = 1.05
	}
	if p.Stance.Conservative <= 0 {
		p.Stance.Conservative = 0.95
	}
	if p.Grid.Points <= 0 {
		p.Grid.Points = 5
	}
	if p.Grid.Span <= 0 {
		p.Grid.Span = 0.10
	}
	if p.Bounds.LowerFactor <= 0 {
		p.Bounds.LowerFactor = 0.8
	}
	if p.Bounds.UpperFactor <= 0 {
		p.Bounds.UpperFactor = 2.0
	}
	if p.PickupFraction <= 0 {
		p.PickupFraction = 0.25
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Ingest.Backend == "" {
		return fmt.Errorf("ingest.backend is required")
	}
	if c.Ingest.Backend != "kafka" && c.Ingest.Backend != "clickhouse" {
		return fmt.Errorf("ingest.backend must be 'kafka' or 'clickhouse', got '%s'", c.Ingest.Backend)
	}
	if c.Pricing.Grid.Points < 3 {
		return fmt.Errorf("pricing.grid.points must be at least 3, got %d", c.Pricing.Grid.Points)
	}
	if c.Pricing.Grid.Points%2 == 0 {
		return fmt.Errorf("pricing.grid.points must be odd so the grid centers on the adjusted price")
	}
	if c.Pricing.Bounds.LowerFactor >= c.Pricing.Bounds.UpperFactor {
		return fmt.Errorf("pricing.bounds.lower_factor must be below upper_factor")
	}
	return nil
}
