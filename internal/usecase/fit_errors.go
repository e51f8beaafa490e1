package usecase

import (
	"sync"
	"time"
)

// FitError is one recorded offline-fit failure, kept for the operator
// surface.
type FitError struct {
	Artifact   string    `json:"artifact"`
	PropertyID string    `json:"property_id"`
	Message    string    `json:"message"`
	At         time.Time `json:"at"`
}

// FitErrorLog is a bounded ring of recent fit failures.
type FitErrorLog struct {
	mu   sync.RWMutex
	ring []FitError
	next int
	full bool
}

// NewFitErrorLog creates a log holding up to size entries.
func NewFitErrorLog(size int) *FitErrorLog {
	if size <= 0 {
		size = 500
	}
	return &FitErrorLog{ring: make([]FitError, size)}
}

// Record appends a failure, overwriting the oldest when full.
func (l *FitErrorLog) Record(fe FitError) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ring[l.next] = fe
	l.next++
	if l.next == len(l.ring) {
		l.next = 0
		l.full = true
	}
}

// Recent returns up to n failures, newest first.
func (l *FitErrorLog) Recent(n int) []FitError {
	l.mu.RLock()
	defer l.mu.RUnlock()

	size := l.next
	if l.full {
		size = len(l.ring)
	}
	if n <= 0 || n > size {
		n = size
	}
	out := make([]FitError, 0, n)
	for i := 0; i < n; i++ {
		idx := l.next - 1 - i
		if idx < 0 {
			idx += len(l.ring)
		}
		out = append(out, l.ring[idx])
	}
	return out
}
