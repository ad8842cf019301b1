package models

import "time"

// DeliveryRecord remembers the receipt of a delivered submission under the
// client supplied idempotency key.
type DeliveryRecord struct {
	Key       string
	MessageID string
	Transport string
	ExpiresAt time.Time
}

func (r *DeliveryRecord) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

func (r *DeliveryRecord) Receipt() Receipt {
	return Receipt{MessageID: r.MessageID, Transport: r.Transport}
}
