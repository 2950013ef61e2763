package models

import "time"

// Payment represents one monthly payment obligation owed by a patient.
//
// Obligations are created by administrative action, one per billing period,
// and transition PENDING -> PAID exactly once.
type Payment struct {
	ID        string        `json:"id" db:"id"`
	PatientID string        `json:"patient_id" db:"patient_id"`
	Month     int           `json:"month" db:"month"`
	Year      int           `json:"year" db:"year"`
	Amount    float64       `json:"amount" db:"amount"`
	Status    PaymentStatus `json:"status" db:"status"`
	PaidAt    *time.Time    `json:"paid_at,omitempty" db:"paid_at"`
	Method    string        `json:"method,omitempty" db:"method"`
	Reference string        `json:"reference,omitempty" db:"reference"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" db:"updated_at"`

	// Relations
	Patient *Patient `json:"patient,omitempty"`
}

// IsPaid reports whether the obligation has been settled.
func (p *Payment) IsPaid() bool {
	return p.Status == PaymentPaid
}

// PaymentStatistics aggregates the ledger for the admin dashboard.
type PaymentStatistics struct {
	TotalPending float64 `json:"total_pending"`
	TotalPaid    float64 `json:"total_paid"`
	CountPending int     `json:"count_pending"`
	CountPaid    int     `json:"count_paid"`
}
