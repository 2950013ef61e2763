package models

import "time"

// ActivityLog is one audit entry. Either UserID or PatientID may be empty
// depending on who or what the action concerned.
type ActivityLog struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id,omitempty" db:"user_id"`
	PatientID   string    `json:"patient_id,omitempty" db:"patient_id"`
	Action      string    `json:"action" db:"action"`
	Description string    `json:"description,omitempty" db:"description"`
	IPAddress   string    `json:"ip_address,omitempty" db:"ip_address"`
	Location    string    `json:"location,omitempty" db:"location"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Audit actions recorded by the system.
const (
	ActionLogin        = "LOGIN"
	ActionRegister     = "REGISTER"
	ActionRecordAccess = "RECORD_ACCESS"
	ActionStatusChange = "STATUS_CHANGE"
)

// ActivityStatistics summarizes the audit trail for the admin dashboard.
type ActivityStatistics struct {
	TotalLogs int `json:"total_logs"`
	LogsToday int `json:"logs_today"`
}
