package server

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	domrepo "RateCast/internal/domain/repository"
	"RateCast/internal/usecase"
	pkgch "RateCast/pkg/clickhouse"
	"RateCast/pkg/config"
	xhttp "RateCast/pkg/http"
	pkgkafka "RateCast/pkg/kafka"
	applogger "RateCast/pkg/logger"
	"RateCast/pkg/queue"

	"github.com/labstack/echo/v4"
)

// App encapsulates the entire application lifecycle: rate-shopper
// collector, bookings ingestion, the offline refit loop, and the HTTP
// surface.
type App struct {
	cfg        *config.Config
	lgr        *applogger.Logger
	collector  *usecase.RateCollector
	processor  *usecase.ObservationProcessor
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
	chClient   *pkgch.Client
	refit      *usecase.RefitUseCase
	refitQueue *queue.RedisQueue
	holder     *usecase.ArtifactHolder
	window     *usecase.RateWindow
	metrics    domrepo.Metrics
	handlers   []xhttp.Handler
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	lgr *applogger.Logger,
	collector *usecase.RateCollector,
	processor *usecase.ObservationProcessor,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	refit *usecase.RefitUseCase,
	refitQueue *queue.RedisQueue,
	holder *usecase.ArtifactHolder,
	window *usecase.RateWindow,
	metrics domrepo.Metrics,
	handlers ...xhttp.Handler,
) *App {
	return &App{
		cfg:        cfg,
		lgr:        lgr,
		collector:  collector,
		processor:  processor,
		consumer:   consumer,
		kh:         kh,
		chClient:   chClient,
		refit:      refit,
		refitQueue: refitQueue,
		holder:     holder,
		window:     window,
		metrics:    metrics,
		handlers:   handlers,
	}
}

// multiHandler registers several handlers on one Echo instance.
type multiHandler []xhttp.Handler

func (m multiHandler) RegisterRoutes(e *echo.Echo) {
	for _, h := range m {
		if h != nil {
			h.RegisterRoutes(e)
		}
	}
}

// subjectProperty is the property the scheduled refit loop fits.
// Ad hoc refits for other properties go through the Redis queue.
func (a *App) subjectProperty() string {
	if len(a.cfg.RateShop.Properties) > 0 {
		return a.cfg.RateShop.Properties[0]
	}
	return "default"
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.lgr
	if l == nil {
		l, _ = applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	}

	a.httpServer = xhttp.NewServer(multiHandler(a.handlers),
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Start rate-shopper collector
	if a.collector != nil {
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				l.Error("rate collector error", applogger.Error(err))
			}
		}()
		l.Info("rate collector started", applogger.Strings("properties", a.cfg.RateShop.Properties))
	}

	// Start bookings consumer if configured
	if a.consumer != nil && a.kh != nil && a.cfg.Ingest.Backend == "kafka" {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Restore the last persisted snapshot, then keep refitting on the
	// configured interval. The live path serves rule-based fallbacks
	// until the first fit lands.
	if a.refit != nil {
		property := a.subjectProperty()
		if err := a.refit.Restore(ctx, property); err != nil {
			l.Warn("artifact restore failed; starting empty", applogger.Error(err))
		}
		go a.refitLoop(ctx, l, property)
	}

	// Start the ad hoc refit queue when Redis is configured
	if a.refitQueue != nil {
		if err := a.refitQueue.Start(); err != nil {
			l.Warn("refit queue start failed", applogger.Error(err))
		}
	}

	go a.housekeeping(ctx)

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// refitLoop runs the initial fit immediately, then on the interval.
func (a *App) refitLoop(ctx context.Context, l *applogger.Logger, property string) {
	run := func() {
		if err := a.refit.Refit(ctx, property); err != nil {
			l.Error("scheduled refit failed", applogger.String("property", property), applogger.Error(err))
		}
	}
	run()

	ticker := time.NewTicker(a.cfg.Analysis.RefitInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}

// housekeeping prunes aged rate points and keeps the snapshot age
// gauge fresh.
func (a *App) housekeeping(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now().UTC()
			if a.window != nil {
				a.window.Prune(now)
			}
			if a.metrics != nil && a.holder != nil && a.holder.Load() != nil {
				a.metrics.RecordSnapshotAge(a.holder.Age(now).Seconds())
			}
		}
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	l := a.lgr
	if l == nil {
		var err error
		l, err = applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
		if err != nil {
			log.Printf("failed to create logger: %v", err)
			return err
		}
	}
	l.Info("shutting down...")

	// Stop collector (pipeline + stream)
	if a.collector != nil {
		if err := a.collector.Shutdown(ctx); err != nil {
			l.Warn("collector stop error", applogger.Error(err))
		}
	}

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	// Stop the refit queue
	if a.refitQueue != nil {
		if err := a.refitQueue.Stop(shutdownCtx); err != nil {
			l.Warn("refit queue stop error", applogger.Error(err))
		}
	}

	// Stop consumer
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Close ingestion resources (publisher/storage)
	if a.processor != nil {
		a.processor.Close()
	}

	// Close infrastructure clients
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	// final flush of any aggregated error logs
	l.RemoveCollector()

	l.Info("shutdown complete")
	return nil
}
