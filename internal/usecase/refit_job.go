package usecase

import (
	"context"
	"encoding/json"
	"fmt"
)

const RefitJobType = "refit.property"

// RefitJob runs a property refit from the Redis queue, so refits can
// be triggered ad hoc without waiting for the scheduled interval.
type RefitJob struct {
	refit *RefitUseCase
}

func NewRefitJob(refit *RefitUseCase) *RefitJob {
	return &RefitJob{refit: refit}
}

func (j *RefitJob) Name() string { return "refit" }

func (j *RefitJob) Type() string { return RefitJobType }

func (j *RefitJob) Handle(ctx context.Context, payload interface{}) error {
	var p struct {
		PropertyID string `json:"property_id"`
	}
	switch v := payload.(type) {
	case json.RawMessage:
		if err := json.Unmarshal(v, &p); err != nil {
			return fmt.Errorf("refit payload: %w", err)
		}
	case []byte:
		if err := json.Unmarshal(v, &p); err != nil {
			return fmt.Errorf("refit payload: %w", err)
		}
	case string:
		p.PropertyID = v
	default:
		return fmt.Errorf("refit payload: unsupported type %T", payload)
	}
	if p.PropertyID == "" {
		return fmt.Errorf("refit payload: property_id empty")
	}
	return j.refit.Refit(ctx, p.PropertyID)
}
