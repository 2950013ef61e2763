// Package records manages consultation entries on a patient's chart.
package records

import (
	"context"
	"errors"
	"time"

	"github.com/odsie/odsie/internal/models"
	"github.com/odsie/odsie/internal/store"
)

var (
	ErrNotFound = errors.New("medical record not found")

	// ErrForbidden means the caller's role does not allow the operation on
	// this record.
	ErrForbidden = errors.New("not allowed to modify this record")

	// ErrSigned means the record carries a signature and can no longer be
	// edited.
	ErrSigned = errors.New("record is signed and can no longer be modified")
)

// RecordStore is the subset of store operations the service needs.
type RecordStore interface {
	CreateRecord(ctx context.Context, r *models.MedicalRecord) error
	GetRecordByID(ctx context.Context, id string) (*models.MedicalRecord, error)
	GetRecordsByPatient(ctx context.Context, patientID string) ([]*models.MedicalRecord, error)
	UpdateRecord(ctx context.Context, r *models.MedicalRecord) error
	SignRecord(ctx context.Context, id, signature, signedBy string) error
	DeleteRecord(ctx context.Context, id string) error
}

// Service exposes chart operations with per-role rules: doctors write and
// sign, admins moderate, patients read.
type Service struct {
	store RecordStore
}

func NewService(s RecordStore) *Service {
	return &Service{store: s}
}

// CreateInput carries the fields of a new consultation entry.
type CreateInput struct {
	PatientID    string
	ConsultedAt  *time.Time
	Reason       string
	Symptoms     string
	Diagnosis    string
	Treatment    string
	Observations string
}

// Create adds a consultation entry authored by the given doctor.
func (s *Service) Create(ctx context.Context, doctorID string, in CreateInput) (*models.MedicalRecord, error) {
	r := &models.MedicalRecord{
		PatientID:    in.PatientID,
		DoctorID:     doctorID,
		Reason:       in.Reason,
		Symptoms:     in.Symptoms,
		Diagnosis:    in.Diagnosis,
		Treatment:    in.Treatment,
		Observations: in.Observations,
	}
	if in.ConsultedAt != nil {
		r.ConsultedAt = *in.ConsultedAt
	}
	if err := s.store.CreateRecord(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Get loads one consultation entry.
func (s *Service) Get(ctx context.Context, id string) (*models.MedicalRecord, error) {
	r, err := s.store.GetRecordByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return r, nil
}

// ListByPatient returns a patient's chart, newest consultation first.
func (s *Service) ListByPatient(ctx context.Context, patientID string) ([]*models.MedicalRecord, error) {
	return s.store.GetRecordsByPatient(ctx, patientID)
}

// UpdateInput carries the editable fields of a consultation entry.
type UpdateInput struct {
	Reason       *string
	Symptoms     *string
	Diagnosis    *string
	Treatment    *string
	Observations *string
}

// Update edits a consultation entry. Doctors may only edit entries they
// authored; admins may edit any. Signed entries are immutable.
func (s *Service) Update(ctx context.Context, actor *models.User, id string, in UpdateInput) (*models.MedicalRecord, error) {
	r, err := s.store.GetRecordByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if err := canModify(actor, r); err != nil {
		return nil, err
	}
	if r.IsSigned() {
		return nil, ErrSigned
	}

	if in.Reason != nil {
		r.Reason = *in.Reason
	}
	if in.Symptoms != nil {
		r.Symptoms = *in.Symptoms
	}
	if in.Diagnosis != nil {
		r.Diagnosis = *in.Diagnosis
	}
	if in.Treatment != nil {
		r.Treatment = *in.Treatment
	}
	if in.Observations != nil {
		r.Observations = *in.Observations
	}

	if err := s.store.UpdateRecord(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Sign attaches the authoring doctor's signature, freezing the entry.
func (s *Service) Sign(ctx context.Context, actor *models.User, id, signature string) (*models.MedicalRecord, error) {
	r, err := s.store.GetRecordByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if err := canModify(actor, r); err != nil {
		return nil, err
	}
	if r.IsSigned() {
		return nil, ErrSigned
	}

	if err := s.store.SignRecord(ctx, id, signature, actor.ID); err != nil {
		return nil, err
	}
	return s.store.GetRecordByID(ctx, id)
}

// Delete removes a consultation entry. Admin only.
func (s *Service) Delete(ctx context.Context, actor *models.User, id string) error {
	if actor.Role != models.RoleAdmin {
		return ErrForbidden
	}
	if err := s.store.DeleteRecord(ctx, id); err != nil {
		return mapNotFound(err)
	}
	return nil
}

func canModify(actor *models.User, r *models.MedicalRecord) error {
	if actor.Role == models.RoleAdmin {
		return nil
	}
	if actor.Role == models.RoleDoctor && r.DoctorID == actor.ID {
		return nil
	}
	return ErrForbidden
}

func mapNotFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
