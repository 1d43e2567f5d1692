package domain

import "time"

// WebhookStatus is the payment result carried by a webhook delivery.
type WebhookStatus string

const (
	WebhookStatusPaid   WebhookStatus = "paid"
	WebhookStatusFailed WebhookStatus = "failed"
)

// ParseWebhookStatus constrains the wire value to a closed enum. The
// source system also accepted "success" and stored it verbatim; this
// implementation rejects anything outside {paid, failed} at the HTTP
// boundary instead (see DESIGN.md Open Questions).
func ParseWebhookStatus(raw string) (WebhookStatus, bool) {
	switch WebhookStatus(raw) {
	case WebhookStatusPaid, WebhookStatusFailed:
		return WebhookStatus(raw), true
	default:
		return "", false
	}
}

// WebhookLog is the sealed outcome of a single idempotency key's first
// processed delivery. Any later delivery with the same key returns
// this verbatim without re-applying side effects.
type WebhookLog struct {
	IdempotencyKey     string
	ResponseBody       []byte
	ResponseStatusCode int
	CreatedAt          time.Time
}

// PendingWebhook parks a payment result that arrived before its order
// existed. At most one row per hold; consumed by reconciliation once
// the order is created.
type PendingWebhook struct {
	ID        string
	HoldID    string
	Status    WebhookStatus
	CreatedAt time.Time
}
