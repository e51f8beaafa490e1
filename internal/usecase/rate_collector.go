package usecase

import (
	"context"

	"RateCast/internal/domain/models"
	drepo "RateCast/internal/domain/repository"
	mid "RateCast/internal/middleware"
)

// RateCollector consumes the rate-shopper stream and feeds the market
// window through the realtime pipeline.
type RateCollector struct {
	stream  drepo.RateStream
	window  *RateWindow
	metrics drepo.Metrics
	pipe    *mid.RealtimePipeline
}

// NewRateCollector creates a new RateCollector instance.
func NewRateCollector(stream drepo.RateStream, window *RateWindow, metrics drepo.Metrics, pipe *mid.RealtimePipeline) *RateCollector {
	return &RateCollector{stream: stream, window: window, metrics: metrics, pipe: pipe}
}

// IsConnected returns true if the rate-shopper stream is connected.
func (c *RateCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *RateCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	rpCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, rpCh, errCh)
	return nil
}

func (c *RateCollector) consume(ctx context.Context, rpCh <-chan *models.RatePoint, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				_ = c.stream.Reconnect(ctx)
			}
		case rp := <-rpCh:
			if rp == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, rp)
			} else {
				_ = c.window.Process(ctx, rp)
			}
		}
	}
}

func (c *RateCollector) Stop() error { return c.stream.Close() }

// Window returns the underlying rate window for quote-path prefill.
func (c *RateCollector) Window() *RateWindow { return c.window }

// Shutdown stops the pipeline and closes the stream.
func (c *RateCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
