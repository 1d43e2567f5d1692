package domain

import "errors"

var (
	// Input validation errors. Map to 4xx at the HTTP boundary.
	ErrInvalidID           = errors.New("invalid id")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrInvalidPrice        = errors.New("price must not be negative")
	ErrInvalidStock        = errors.New("stock must not be negative")
	ErrProductNameRequired = errors.New("product name required")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrProductNotFound     = errors.New("product does not exist")

	ErrHoldNotFound = errors.New("hold not found")
	ErrHoldInvalid  = errors.New("hold invalid or expired")

	ErrOrderAlreadyExists = errors.New("order already exists for hold")
	ErrOrderNotFound      = errors.New("order not found")

	ErrIdempotencyKeyRequired = errors.New("idempotency key required")
	ErrInvalidWebhookStatus   = errors.New("webhook status must be paid or failed")

	// ErrWebhookConflict is returned when a second, distinct payment
	// attempt races an existing PendingWebhook row before any order
	// has been created for that hold.
	ErrWebhookConflict = errors.New("conflicting payment result for hold")

	// ErrWebhookLogSealed signals that a concurrent delivery with the
	// same idempotency key won the race to seal the WebhookLog row
	// first; the caller should re-read it instead of treating this as
	// a fatal error.
	ErrWebhookLogSealed = errors.New("webhook log already sealed")
)
