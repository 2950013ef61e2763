package store

import (
	"context"
	"time"

	"github.com/odsie/odsie/internal/models"
)

const fileColumns = `id, patient_id, uploaded_by, file_name, file_url, storage_key,
	file_size, mime_type, file_type, folder, description, created_at`

func scanFile(row interface{ Scan(...any) error }) (*models.MedicalFile, error) {
	f := &models.MedicalFile{}
	err := row.Scan(
		&f.ID, &f.PatientID, &f.UploadedBy, &f.FileName, &f.FileURL, &f.StorageKey,
		&f.FileSize, &f.MimeType, &f.FileType, &f.Folder, &f.Description, &f.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return f, nil
}

// CreateFile inserts a file metadata row, assigning ID and timestamp.
func (s *Store) CreateFile(ctx context.Context, f *models.MedicalFile) error {
	f.ID = newID()
	f.CreatedAt = time.Now()

	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO medical_files
		(id, patient_id, uploaded_by, file_name, file_url, storage_key, file_size,
		mime_type, file_type, folder, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		f.ID, f.PatientID, f.UploadedBy, f.FileName, f.FileURL, f.StorageKey,
		f.FileSize, f.MimeType, f.FileType, f.Folder, f.Description, f.CreatedAt,
	)
	return err
}

// GetFileByID retrieves one file metadata row.
func (s *Store) GetFileByID(ctx context.Context, id string) (*models.MedicalFile, error) {
	row := s.db.QueryRowContext(ctx,
		s.rebind("SELECT "+fileColumns+" FROM medical_files WHERE id = ?"), id)
	return scanFile(row)
}

// GetFilesByPatient returns a patient's files, optionally filtered by folder,
// newest first.
func (s *Store) GetFilesByPatient(ctx context.Context, patientID, folder string) ([]*models.MedicalFile, error) {
	query := "SELECT " + fileColumns + " FROM medical_files WHERE patient_id = ?"
	args := []any{patientID}
	if folder != "" {
		query += " AND folder = ?"
		args = append(args, folder)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []*models.MedicalFile
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// DeleteFile removes a file metadata row.
func (s *Store) DeleteFile(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		s.rebind("DELETE FROM medical_files WHERE id = ?"), id)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}
