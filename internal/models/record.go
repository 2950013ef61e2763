package models

import "time"

// MedicalRecord is one consultation entry in a patient's clinical history.
type MedicalRecord struct {
	ID           string     `json:"id" db:"id"`
	PatientID    string     `json:"patient_id" db:"patient_id"`
	DoctorID     string     `json:"doctor_id" db:"doctor_id"`
	ConsultedAt  time.Time  `json:"consulted_at" db:"consulted_at"`
	Reason       string     `json:"reason" db:"reason"`
	Symptoms     string     `json:"symptoms,omitempty" db:"symptoms"`
	Diagnosis    string     `json:"diagnosis,omitempty" db:"diagnosis"`
	Treatment    string     `json:"treatment,omitempty" db:"treatment"`
	Observations string     `json:"observations,omitempty" db:"observations"`
	Signature    string     `json:"signature,omitempty" db:"signature"`
	SignedBy     string     `json:"signed_by,omitempty" db:"signed_by"`
	SignedAt     *time.Time `json:"signed_at,omitempty" db:"signed_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`

	// Relations
	Doctor *User `json:"doctor,omitempty"`
}

// IsSigned reports whether the record carries a digital signature.
func (r *MedicalRecord) IsSigned() bool {
	return r.Signature != "" && r.SignedAt != nil
}
