package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/odsie/odsie/internal/models"
)

const recordColumns = `id, patient_id, doctor_id, consulted_at, reason, symptoms,
	diagnosis, treatment, observations, signature, signed_by, signed_at,
	created_at, updated_at`

func scanRecord(row interface{ Scan(...any) error }) (*models.MedicalRecord, error) {
	r := &models.MedicalRecord{}
	var signedAt sql.NullTime
	err := row.Scan(
		&r.ID, &r.PatientID, &r.DoctorID, &r.ConsultedAt, &r.Reason, &r.Symptoms,
		&r.Diagnosis, &r.Treatment, &r.Observations, &r.Signature, &r.SignedBy,
		&signedAt, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	if signedAt.Valid {
		r.SignedAt = &signedAt.Time
	}
	return r, nil
}

// CreateRecord inserts a consultation entry, assigning ID and timestamps.
func (s *Store) CreateRecord(ctx context.Context, r *models.MedicalRecord) error {
	r.ID = newID()
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now
	if r.ConsultedAt.IsZero() {
		r.ConsultedAt = now
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO medical_records
		(id, patient_id, doctor_id, consulted_at, reason, symptoms, diagnosis,
		treatment, observations, signature, signed_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, '', '', ?, ?)`),
		r.ID, r.PatientID, r.DoctorID, r.ConsultedAt, r.Reason, r.Symptoms,
		r.Diagnosis, r.Treatment, r.Observations, r.CreatedAt, r.UpdatedAt,
	)
	return err
}

// GetRecordByID retrieves one record with its doctor attached.
func (s *Store) GetRecordByID(ctx context.Context, id string) (*models.MedicalRecord, error) {
	row := s.db.QueryRowContext(ctx,
		s.rebind("SELECT "+recordColumns+" FROM medical_records WHERE id = ?"), id)
	r, err := scanRecord(row)
	if err != nil {
		return nil, err
	}
	if doctor, err := s.GetUserByID(ctx, r.DoctorID); err == nil {
		r.Doctor = doctor.Sanitized()
	}
	return r, nil
}

// GetRecordsByPatient returns a patient's history, most recent consultation first.
func (s *Store) GetRecordsByPatient(ctx context.Context, patientID string) ([]*models.MedicalRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		"SELECT "+recordColumns+" FROM medical_records WHERE patient_id = ? ORDER BY consulted_at DESC"),
		patientID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.MedicalRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// UpdateRecord updates the clinical fields of a record.
func (s *Store) UpdateRecord(ctx context.Context, r *models.MedicalRecord) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE medical_records SET
		reason = ?, symptoms = ?, diagnosis = ?, treatment = ?, observations = ?,
		updated_at = ?
		WHERE id = ?`),
		r.Reason, r.Symptoms, r.Diagnosis, r.Treatment, r.Observations,
		time.Now(), r.ID,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

// SignRecord stores the digital signature on a record.
func (s *Store) SignRecord(ctx context.Context, id, signature, signedBy string) error {
	now := time.Now()
	res, err := s.db.ExecContext(ctx, s.rebind(
		"UPDATE medical_records SET signature = ?, signed_by = ?, signed_at = ?, updated_at = ? WHERE id = ?"),
		signature, signedBy, now, now, id,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

// DeleteRecord removes a record.
func (s *Store) DeleteRecord(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		s.rebind("DELETE FROM medical_records WHERE id = ?"), id)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}
