package queue

import "context"

// Job is a registered queue job handler. The refit worker registers
// one Job per message type it serves.
type Job interface {
	// Name uniquely identifies the job for logging and metrics.
	Name() string

	// Type is the message type this job consumes.
	Type() string

	// Handle processes one message payload.
	Handle(ctx context.Context, payload interface{}) error
}
