package models

import "time"

// Notification is an in-app message delivered to a single user.
type Notification struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Kind      string    `json:"kind" db:"kind"`
	Title     string    `json:"title" db:"title"`
	Message   string    `json:"message" db:"message"`
	Read      bool      `json:"read" db:"read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Notification kinds.
const (
	NotificationAccess  = "ACCESS"
	NotificationPayment = "PAYMENT"
	NotificationGeneral = "GENERAL"
)
