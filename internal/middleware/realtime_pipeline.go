package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"RateCast/internal/domain/models"
	domrepo "RateCast/internal/domain/repository"
)

// RateSink is the minimal downstream interface the pipeline needs.
type RateSink interface {
	Process(ctx context.Context, rp *models.RatePoint) error
}

// RealtimePipeline sits between the rate-shopper WebSocket and the
// market window. It validates, throttles per property, optionally
// transforms, and buffers when downstream is unavailable.
type RealtimePipeline struct {
	sink     RateSink
	metrics  domrepo.Metrics
	maxRPS   int
	bufSize  int
	bufCh    chan *models.RatePoint
	stopCh   chan struct{}
	started  bool
	mu       sync.Mutex
	lastSeen map[string]time.Time // per-property last accepted time
	// simple format transform hook (optional)
	transform func(*models.RatePoint) *models.RatePoint
	// metrics
	bufDepthGauge func(int)
	throttleWarn  func(string)
}

type PipelineOption func(*RealtimePipeline)

// WithMaxRPS sets the max rate points per second per property.
func WithMaxRPS(n int) PipelineOption {
	return func(p *RealtimePipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the temporary buffer size when downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *RealtimePipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithTransform sets a transformation hook to modify rate point format.
func WithTransform(fn func(*models.RatePoint) *models.RatePoint) PipelineOption {
	return func(p *RealtimePipeline) { p.transform = fn }
}

// NewRealtimePipeline creates a new pipeline.
func NewRealtimePipeline(sink RateSink, metrics domrepo.Metrics, opts ...PipelineOption) *RealtimePipeline {
	p := &RealtimePipeline{
		sink:     sink,
		metrics:  metrics,
		maxRPS:   20,   // default throttle per property
		bufSize:  1000, // default buffer
		bufCh:    make(chan *models.RatePoint, 1000),
		stopCh:   make(chan struct{}),
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufSize != cap(p.bufCh) {
		p.bufCh = make(chan *models.RatePoint, p.bufSize)
	}
	// metrics hooks using domain metrics if available
	p.bufDepthGauge = func(n int) { p.metrics.RecordLatency("pipeline_buffer_depth", float64(n)) }
	p.throttleWarn = func(prop string) { p.metrics.RecordError("pipeline_throttle_" + prop) }
	return p
}

// Start launches background flushing of buffered rate points.
func (p *RealtimePipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case rp := <-p.bufCh:
				if rp == nil {
					continue
				}
				if err := p.sink.Process(ctx, rp); err != nil {
					// exponential backoff with cap
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- rp:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *RealtimePipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates, throttles, and forwards a rate point downstream,
// buffering on errors.
func (p *RealtimePipeline) Process(ctx context.Context, rp *models.RatePoint) error {
	start := time.Now()
	if err := validateRatePoint(rp); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if p.transform != nil {
		rp = p.transform(rp)
		if err := validateRatePoint(rp); err != nil {
			p.metrics.RecordError("pipeline_transform_invalid")
			return err
		}
	}
	if !p.allow(rp.PropertyID, start) {
		// throttled; record and drop silently
		p.metrics.RecordError("pipeline_throttle")
		if p.throttleWarn != nil {
			p.throttleWarn(rp.PropertyID)
		}
		return nil
	}

	if err := p.sink.Process(ctx, rp); err != nil {
		p.metrics.RecordError("pipeline_process")
		// buffer non-blocking
		select {
		case p.bufCh <- rp:
			if p.bufDepthGauge != nil {
				p.bufDepthGauge(len(p.bufCh))
			}
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func validateRatePoint(rp *models.RatePoint) error {
	if rp == nil {
		return fmt.Errorf("rate point nil")
	}
	if rp.PropertyID == "" {
		return fmt.Errorf("property id empty")
	}
	if rp.ObservedAt.IsZero() {
		return fmt.Errorf("observed_at invalid")
	}
	if rp.Price <= 0 {
		return fmt.Errorf("non-positive price")
	}
	return nil
}

func (p *RealtimePipeline) allow(propertyID string, now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	// simple throttle: ensure at most maxRPS per second
	last := p.lastSeen[propertyID]
	if last.IsZero() {
		p.lastSeen[propertyID] = now
		return true
	}
	if now.Sub(last) < time.Second/time.Duration(p.maxRPS) {
		return false
	}
	p.lastSeen[propertyID] = now
	return true
}
