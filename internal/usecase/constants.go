package usecase

import "time"

const (
	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// IdempotencyPlaceholder marks a key whose request is still in flight.
	IdempotencyPlaceholder = "processing"

	// Operation outcomes reported to Metrics.
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
	OutcomeCanceled = "canceled"
)
