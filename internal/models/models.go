package models

// Role identifies what a user is allowed to do in the system.
type Role string

const (
	RolePatient Role = "PATIENT"
	RoleDoctor  Role = "DOCTOR"
	RoleAdmin   Role = "ADMIN"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

// AccountStatus represents the current state of a user's account.
//
// The status is a cached decision: it is recomputed at login time and after
// payment settlement, not enforced continuously.
type AccountStatus string

const (
	AccountActive    AccountStatus = "ACTIVE"
	AccountBlocked   AccountStatus = "BLOCKED"   // pending payments found at login
	AccountSuspended AccountStatus = "SUSPENDED" // administrative action, terminal
)

// Valid reports whether the status is one of the known account states.
func (s AccountStatus) Valid() bool {
	switch s {
	case AccountActive, AccountBlocked, AccountSuspended:
		return true
	}
	return false
}

// PaymentStatus represents the lifecycle state of a monthly payment obligation.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentOverdue PaymentStatus = "OVERDUE"
)

// FileType classifies an uploaded medical file.
type FileType string

const (
	FileSymptom      FileType = "SYMPTOM"
	FilePrescription FileType = "PRESCRIPTION"
	FileExam         FileType = "EXAM"
	FileMedicalImage FileType = "MEDICAL_IMAGE"
)

// Valid reports whether the file type is one of the known categories.
func (t FileType) Valid() bool {
	switch t {
	case FileSymptom, FilePrescription, FileExam, FileMedicalImage:
		return true
	}
	return false
}
