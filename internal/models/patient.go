package models

import "time"

// EmergencyContact is one of up to three contacts on a patient profile.
type EmergencyContact struct {
	Name     string `json:"name"`
	Relation string `json:"relation"`
	Phone    string `json:"phone"`
	Email    string `json:"email,omitempty"`
}

// Patient holds the clinical profile attached to a user with RolePatient.
type Patient struct {
	ID                 string             `json:"id" db:"id"`
	UserID             string             `json:"user_id" db:"user_id"`
	Allergies          []string           `json:"allergies" db:"allergies"`
	ChronicDiseases    []string           `json:"chronic_diseases" db:"chronic_diseases"`
	CurrentMedications []string           `json:"current_medications" db:"current_medications"`
	EmergencyContacts  []EmergencyContact `json:"emergency_contacts,omitempty" db:"emergency_contacts"`
	QRAccessToken      string             `json:"qr_access_token" db:"qr_access_token"`
	QRCodeData         string             `json:"qr_code_data,omitempty" db:"qr_code_data"` // base64 PNG
	CreatedAt          time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at" db:"updated_at"`

	// Relations
	User *User `json:"user,omitempty"`
}
