package usecase

import (
	"context"
	"sync"
	"time"

	"RateCast/internal/analytics"
	"RateCast/internal/domain/models"
)

// RateWindow keeps a rolling window of competitor rate points per
// property and stay date and serves percentile anchors to the quote
// path. Single writer (the collector); many concurrent readers.
type RateWindow struct {
	mu          sync.RWMutex
	points      map[windowKey][]*models.RatePoint
	windowSize  int
	maxPointAge time.Duration
}

type windowKey struct {
	propertyID string
	stayDate   string // yyyy-mm-dd
}

// NewRateWindow creates a rolling rate window.
func NewRateWindow(windowSize int, maxPointAge time.Duration) *RateWindow {
	if windowSize <= 0 {
		windowSize = 200
	}
	if maxPointAge <= 0 {
		maxPointAge = 6 * time.Hour
	}
	return &RateWindow{
		points:      make(map[windowKey][]*models.RatePoint),
		windowSize:  windowSize,
		maxPointAge: maxPointAge,
	}
}

// Process adds a rate point to the window. Implements the pipeline
// sink; the context is accepted for interface symmetry only, the
// write never blocks.
func (w *RateWindow) Process(_ context.Context, rp *models.RatePoint) error {
	key := windowKey{propertyID: rp.PropertyID, stayDate: rp.StayDate.Format("2006-01-02")}

	w.mu.Lock()
	defer w.mu.Unlock()

	pts := append(w.points[key], rp)
	if len(pts) > w.windowSize {
		pts = pts[len(pts)-w.windowSize:]
	}
	w.points[key] = pts
	return nil
}

// Percentiles returns the p10/p50/p90 anchors for a stay date, or
// false when no fresh points exist. Stale points are filtered by
// observation age, not evicted; Prune handles eviction.
func (w *RateWindow) Percentiles(propertyID string, stayDate time.Time, now time.Time) (*models.CompetitorPercentiles, bool) {
	key := windowKey{propertyID: propertyID, stayDate: stayDate.Format("2006-01-02")}
	cutoff := now.Add(-w.maxPointAge)

	w.mu.RLock()
	pts := w.points[key]
	prices := make([]float64, 0, len(pts))
	for _, rp := range pts {
		if rp.ObservedAt.Before(cutoff) {
			continue
		}
		prices = append(prices, rp.Price)
	}
	w.mu.RUnlock()

	if len(prices) == 0 {
		return nil, false
	}
	return &models.CompetitorPercentiles{
		P10: analytics.Percentile(prices, 10),
		P50: analytics.Percentile(prices, 50),
		P90: analytics.Percentile(prices, 90),
		N:   len(prices),
		At:  now,
	}, true
}

// Prune evicts stay dates whose every point has aged out. Meant to be
// called periodically from the app lifecycle.
func (w *RateWindow) Prune(now time.Time) int {
	cutoff := now.Add(-w.maxPointAge)

	w.mu.Lock()
	defer w.mu.Unlock()

	evicted := 0
	for key, pts := range w.points {
		fresh := pts[:0]
		for _, rp := range pts {
			if !rp.ObservedAt.Before(cutoff) {
				fresh = append(fresh, rp)
			}
		}
		if len(fresh) == 0 {
			delete(w.points, key)
			evicted++
			continue
		}
		w.points[key] = fresh
	}
	return evicted
}

// Size returns the number of tracked stay-date windows.
func (w *RateWindow) Size() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.points)
}
