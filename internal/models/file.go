package models

import "time"

// MedicalFile is the metadata row for a file stored in object storage.
type MedicalFile struct {
	ID          string    `json:"id" db:"id"`
	PatientID   string    `json:"patient_id" db:"patient_id"`
	UploadedBy  string    `json:"uploaded_by" db:"uploaded_by"`
	FileName    string    `json:"file_name" db:"file_name"`
	FileURL     string    `json:"file_url" db:"file_url"`
	StorageKey  string    `json:"-" db:"storage_key"`
	FileSize    int64     `json:"file_size" db:"file_size"`
	MimeType    string    `json:"mime_type,omitempty" db:"mime_type"`
	FileType    FileType  `json:"file_type" db:"file_type"`
	Folder      string    `json:"folder" db:"folder"`
	Description string    `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
