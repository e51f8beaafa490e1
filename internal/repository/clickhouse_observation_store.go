package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"RateCast/internal/domain/models"
	domrepo "RateCast/internal/domain/repository"
	pkgch "RateCast/pkg/clickhouse"
	applogger "RateCast/pkg/logger"
)

const observationsTable = "ratecast.observations"

// CHObservationStore implements ObservationStore backed by ClickHouse.
type CHObservationStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHObservationStore(ch *pkgch.Client) domrepo.ObservationStore {
	return &CHObservationStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHObservationStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHObservationStore) Store(ctx context.Context, o *models.HistoricalObservation) error {
	q := fmt.Sprintf(`INSERT INTO %s
        (property_id, stay_date, price, occupancy_rate, bookings, capacity,
         temperature, precipitation, weather_quality, is_holiday)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, observationsTable)
	_, err := s.db.ExecContext(ctx, q, observationArgs(o)...)
	if err != nil {
		return fmt.Errorf("store observation: %w", err)
	}
	return nil
}

func (s *CHObservationStore) StoreBatch(ctx context.Context, obs []*models.HistoricalObservation) error {
	if len(obs) == 0 {
		return nil
	}
	// Multi-row VALUES insert to reduce round-trips. Chunked at 2000
	// rows per statement.
	const chunkSize = 2000
	for start := 0; start < len(obs); start += chunkSize {
		end := start + chunkSize
		if end > len(obs) {
			end = len(obs)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*10)
		for _, o := range obs[start:end] {
			if o == nil || o.PropertyID == "" || o.Date.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args, observationArgs(o)...)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf(`INSERT INTO %s
            (property_id, stay_date, price, occupancy_rate, bookings, capacity,
             temperature, precipitation, weather_quality, is_holiday)
            VALUES %s`, observationsTable, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("store batch: %w", err)
		}
	}
	return nil
}

func (s *CHObservationStore) Window(ctx context.Context, propertyID string, from, to time.Time) ([]models.HistoricalObservation, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT property_id, stay_date, price, occupancy_rate, bookings, capacity,
               temperature, precipitation, weather_quality, is_holiday
        FROM %s
        WHERE property_id = ? AND stay_date >= ? AND stay_date <= ?
        ORDER BY stay_date ASC`, observationsTable)
	rows, err := s.db.QueryContext(ctx, q, propertyID, from, to)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse window query error",
				applogger.String("property", propertyID),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("observation window: %w", err)
	}
	defer rows.Close()

	out, err := scanObservations(rows)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse window scan error",
				applogger.String("property", propertyID),
				applogger.Error(err),
			)
		}
		return nil, err
	}
	if s.l != nil {
		s.l.Info("clickhouse window ok",
			applogger.String("property", propertyID),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHObservationStore) LatestN(ctx context.Context, propertyID string, n int) ([]models.HistoricalObservation, error) {
	q := fmt.Sprintf(`
        SELECT property_id, stay_date, price, occupancy_rate, bookings, capacity,
               temperature, precipitation, weather_quality, is_holiday
        FROM %s
        WHERE property_id = ?
        ORDER BY stay_date DESC
        LIMIT ?`, observationsTable)
	rows, err := s.db.QueryContext(ctx, q, propertyID, n)
	if err != nil {
		return nil, fmt.Errorf("latest observations: %w", err)
	}
	defer rows.Close()

	out, err := scanObservations(rows)
	if err != nil {
		return nil, err
	}
	// reverse to ASC
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *CHObservationStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHObservationStore) Close() error {
	return nil // Managed by pkg
}

func observationArgs(o *models.HistoricalObservation) []interface{} {
	return []interface{}{
		o.PropertyID,
		o.Date,
		o.Price,
		o.OccupancyRate,
		o.Bookings,
		o.Capacity,
		nullableFloat(o.Temperature),
		nullableFloat(o.Precipitation),
		nullableFloat(o.WeatherQuality),
		o.IsHoliday,
	}
}

func nullableFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func scanObservations(rows *sql.Rows) ([]models.HistoricalObservation, error) {
	out := make([]models.HistoricalObservation, 0, 512)
	for rows.Next() {
		var (
			o                 models.HistoricalObservation
			temp, precip, wxq sql.NullFloat64
		)
		if err := rows.Scan(&o.PropertyID, &o.Date, &o.Price, &o.OccupancyRate,
			&o.Bookings, &o.Capacity, &temp, &precip, &wxq, &o.IsHoliday); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		if temp.Valid {
			v := temp.Float64
			o.Temperature = &v
		}
		if precip.Valid {
			v := precip.Float64
			o.Precipitation = &v
		}
		if wxq.Valid {
			v := wxq.Float64
			o.WeatherQuality = &v
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
