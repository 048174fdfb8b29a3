package model

import "time"

// Donation payment statuses. The payment boundary in this deployment is a
// stub that always succeeds, so rows are written directly as completed;
// the pending/failed states exist for when a real gateway is wired in.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

// Donation is an append-only record of a one-directional tip from a donor
// to a recipient profile.
//
// DonorID is empty when the donation is anonymous: anonymity hides the
// recipient-facing attribution, not the requirement to be logged in — the
// acting identity is still authenticated at call time, we just don't store
// the reference. Once written with status completed, a row is never mutated
// or deleted.
type Donation struct {
	ID            string    `json:"id"            db:"id"`
	DonorID       string    `json:"donorId"       db:"donor_id"` // empty if anonymous
	RecipientID   string    `json:"recipientId"   db:"recipient_id"`
	Amount        float64   `json:"amount"        db:"amount"` // always > 0
	Message       string    `json:"message"       db:"message"`
	Anonymous     bool      `json:"anonymous"     db:"is_anonymous"`
	PaymentStatus string    `json:"paymentStatus" db:"payment_status"`
	PaymentID     string    `json:"paymentId"     db:"payment_id"` // external correlation ID
	CreatedAt     time.Time `json:"createdAt"     db:"created_at"`

	// Donor is the joined donor profile summary; nil for anonymous rows.
	Donor *ProfileSummary `json:"donor,omitempty"`
}

// DonationStats summarises completed donations received by a profile.
type DonationStats struct {
	TotalAmount   float64 `json:"totalAmount"`
	DonationCount int     `json:"donationCount"`
}
