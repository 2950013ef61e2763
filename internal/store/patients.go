package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/odsie/odsie/internal/models"
)

const patientColumns = `id, user_id, allergies, chronic_diseases, current_medications,
	emergency_contacts, qr_access_token, qr_code_data, created_at, updated_at`

func scanPatient(row interface{ Scan(...any) error }) (*models.Patient, error) {
	p := &models.Patient{}
	var allergies, diseases, medications, contacts string
	err := row.Scan(
		&p.ID, &p.UserID, &allergies, &diseases, &medications, &contacts,
		&p.QRAccessToken, &p.QRCodeData, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	if err := decodeList(allergies, &p.Allergies); err != nil {
		return nil, fmt.Errorf("bad allergies column for patient %s: %w", p.ID, err)
	}
	if err := decodeList(diseases, &p.ChronicDiseases); err != nil {
		return nil, fmt.Errorf("bad chronic_diseases column for patient %s: %w", p.ID, err)
	}
	if err := decodeList(medications, &p.CurrentMedications); err != nil {
		return nil, fmt.Errorf("bad current_medications column for patient %s: %w", p.ID, err)
	}
	if err := decodeList(contacts, &p.EmergencyContacts); err != nil {
		return nil, fmt.Errorf("bad emergency_contacts column for patient %s: %w", p.ID, err)
	}
	return p, nil
}

func decodeList(raw string, dst any) error {
	if raw == "" {
		raw = "[]"
	}
	return json.Unmarshal([]byte(raw), dst)
}

func encodeList(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CreatePatient inserts the clinical profile row for a patient user with a
// fresh QR access token.
func (s *Store) CreatePatient(ctx context.Context, userID string) (*models.Patient, error) {
	now := time.Now()
	p := &models.Patient{
		ID:                 newID(),
		UserID:             userID,
		Allergies:          []string{},
		ChronicDiseases:    []string{},
		CurrentMedications: []string{},
		QRAccessToken:      uuid.NewString(),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO patients
		(id, user_id, allergies, chronic_diseases, current_medications,
		emergency_contacts, qr_access_token, qr_code_data, created_at, updated_at)
		VALUES (?, ?, '[]', '[]', '[]', '[]', ?, '', ?, ?)`),
		p.ID, p.UserID, p.QRAccessToken, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetPatientByID retrieves a patient with its user profile attached.
func (s *Store) GetPatientByID(ctx context.Context, id string) (*models.Patient, error) {
	row := s.db.QueryRowContext(ctx,
		s.rebind("SELECT "+patientColumns+" FROM patients WHERE id = ?"), id)
	p, err := scanPatient(row)
	if err != nil {
		return nil, err
	}
	return s.attachUser(ctx, p)
}

// GetPatientByUserID retrieves a patient by the owning user's ID.
func (s *Store) GetPatientByUserID(ctx context.Context, userID string) (*models.Patient, error) {
	row := s.db.QueryRowContext(ctx,
		s.rebind("SELECT "+patientColumns+" FROM patients WHERE user_id = ?"), userID)
	return scanPatient(row)
}

// GetPatientByQRToken retrieves a patient by its QR access token, user attached.
func (s *Store) GetPatientByQRToken(ctx context.Context, token string) (*models.Patient, error) {
	row := s.db.QueryRowContext(ctx,
		s.rebind("SELECT "+patientColumns+" FROM patients WHERE qr_access_token = ?"), token)
	p, err := scanPatient(row)
	if err != nil {
		return nil, err
	}
	return s.attachUser(ctx, p)
}

func (s *Store) attachUser(ctx context.Context, p *models.Patient) (*models.Patient, error) {
	u, err := s.GetUserByID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	p.User = u.Sanitized()
	return p, nil
}

// GetAllPatients returns every patient with its user profile attached.
func (s *Store) GetAllPatients(ctx context.Context) ([]*models.Patient, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+patientColumns+" FROM patients ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patients []*models.Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, p := range patients {
		if _, err := s.attachUser(ctx, p); err != nil {
			return nil, err
		}
	}
	return patients, nil
}

// UpdatePatientProfile updates the clinical fields of a patient.
func (s *Store) UpdatePatientProfile(ctx context.Context, p *models.Patient) error {
	allergies, err := encodeList(p.Allergies)
	if err != nil {
		return err
	}
	diseases, err := encodeList(p.ChronicDiseases)
	if err != nil {
		return err
	}
	medications, err := encodeList(p.CurrentMedications)
	if err != nil {
		return err
	}
	contacts, err := encodeList(p.EmergencyContacts)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE patients SET
		allergies = ?, chronic_diseases = ?, current_medications = ?,
		emergency_contacts = ?, updated_at = ?
		WHERE id = ?`),
		allergies, diseases, medications, contacts, time.Now(), p.ID,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

// SetPatientQRData stores the rendered QR code for the current access token.
func (s *Store) SetPatientQRData(ctx context.Context, patientID, qrData string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(
		"UPDATE patients SET qr_code_data = ?, updated_at = ? WHERE id = ?"),
		qrData, time.Now(), patientID,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

// UpdatePatientQR stores a new access token and rendered QR code.
func (s *Store) UpdatePatientQR(ctx context.Context, patientID, token, qrData string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(
		"UPDATE patients SET qr_access_token = ?, qr_code_data = ?, updated_at = ? WHERE id = ?"),
		token, qrData, time.Now(), patientID,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}
