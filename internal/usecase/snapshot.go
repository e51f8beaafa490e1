package usecase

import (
	"sync/atomic"
	"time"

	"RateCast/internal/domain/models"
)

// ArtifactHolder hands fitted artifacts from the offline pipeline to
// the scoring path. The swap is an atomic pointer replacement, never
// an in-place mutation of a set a reader may hold; scoring requests
// read the same immutable set for their whole lifetime.
type ArtifactHolder struct {
	current atomic.Pointer[models.ArtifactSet]
}

// NewArtifactHolder creates an empty holder; Load returns nil until
// the first successful fit or restore.
func NewArtifactHolder() *ArtifactHolder {
	return &ArtifactHolder{}
}

// Load returns the current artifact set, or nil when none is loaded.
func (h *ArtifactHolder) Load() *models.ArtifactSet {
	return h.current.Load()
}

// Swap publishes a new artifact set. The previous set stays valid for
// readers that already loaded it.
func (h *ArtifactHolder) Swap(set *models.ArtifactSet) {
	h.current.Store(set)
}

// Age reports how long ago the current set was fitted; a very large
// value when nothing is loaded.
func (h *ArtifactHolder) Age(now time.Time) time.Duration {
	set := h.current.Load()
	if set == nil {
		return time.Duration(1<<62 - 1)
	}
	return now.Sub(set.RefittedAt)
}

// Stale reports whether the current set predates the staleness window.
func (h *ArtifactHolder) Stale(now time.Time, window time.Duration) bool {
	return h.Age(now) > window
}
