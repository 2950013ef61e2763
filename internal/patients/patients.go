// Package patients manages clinical profiles and the QR access channel.
package patients

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/odsie/odsie/internal/models"
	"github.com/odsie/odsie/internal/store"
)

var ErrNotFound = errors.New("patient not found")

// PatientStore is the subset of store operations the service needs.
type PatientStore interface {
	GetPatientByID(ctx context.Context, id string) (*models.Patient, error)
	GetPatientByUserID(ctx context.Context, userID string) (*models.Patient, error)
	GetPatientByQRToken(ctx context.Context, token string) (*models.Patient, error)
	GetAllPatients(ctx context.Context) ([]*models.Patient, error)
	UpdatePatientProfile(ctx context.Context, p *models.Patient) error
	SetPatientQRData(ctx context.Context, patientID, qrData string) error
	UpdatePatientQR(ctx context.Context, patientID, token, qrData string) error
	CreateActivityLog(ctx context.Context, l *models.ActivityLog) error
}

// AccessNotifier tells a patient their record was opened through the QR
// channel. Delivery failures must not block the access itself.
type AccessNotifier interface {
	NotifyAccess(ctx context.Context, patient *models.Patient, accessedBy string)
}

// Service exposes profile management and QR record access.
type Service struct {
	store       PatientStore
	notifier    AccessNotifier
	frontendURL string
}

// NewService wires the service. frontendURL is the base the QR image points
// at; the token is appended as a path segment.
func NewService(s PatientStore, notifier AccessNotifier, frontendURL string) *Service {
	return &Service{store: s, notifier: notifier, frontendURL: frontendURL}
}

// List returns every clinical profile with its sanitized account.
func (s *Service) List(ctx context.Context) ([]*models.Patient, error) {
	return s.store.GetAllPatients(ctx)
}

// Get loads one clinical profile by id.
func (s *Service) Get(ctx context.Context, id string) (*models.Patient, error) {
	p, err := s.store.GetPatientByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return p, nil
}

// GetOwn loads the clinical profile owned by a user account.
func (s *Service) GetOwn(ctx context.Context, userID string) (*models.Patient, error) {
	p, err := s.store.GetPatientByUserID(ctx, userID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return p, nil
}

// UpdateInput carries the clinical fields a profile update may change.
type UpdateInput struct {
	Allergies          []string
	ChronicDiseases    []string
	CurrentMedications []string
	EmergencyContacts  []models.EmergencyContact
}

// Update applies a partial update to a clinical profile. Nil slices leave the
// stored value untouched.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*models.Patient, error) {
	p, err := s.store.GetPatientByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}

	if in.Allergies != nil {
		p.Allergies = in.Allergies
	}
	if in.ChronicDiseases != nil {
		p.ChronicDiseases = in.ChronicDiseases
	}
	if in.CurrentMedications != nil {
		p.CurrentMedications = in.CurrentMedications
	}
	if in.EmergencyContacts != nil {
		p.EmergencyContacts = in.EmergencyContacts
	}

	if err := s.store.UpdatePatientProfile(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GenerateQR renders the profile's access token as a QR image, stores the
// encoded image on the profile, and returns the updated profile. Calling it
// again re-renders the same token.
func (s *Service) GenerateQR(ctx context.Context, patientID string) (*models.Patient, error) {
	p, err := s.store.GetPatientByID(ctx, patientID)
	if err != nil {
		return nil, mapNotFound(err)
	}

	data, err := s.renderQR(p.QRAccessToken)
	if err != nil {
		return nil, err
	}

	if err := s.store.SetPatientQRData(ctx, p.ID, data); err != nil {
		return nil, err
	}
	p.QRCodeData = data
	return p, nil
}

// RegenerateQR replaces the access token with a fresh one, invalidating every
// previously shared QR image, and stores the new rendering.
func (s *Service) RegenerateQR(ctx context.Context, patientID string) (*models.Patient, error) {
	p, err := s.store.GetPatientByID(ctx, patientID)
	if err != nil {
		return nil, mapNotFound(err)
	}

	token := uuid.NewString()
	data, err := s.renderQR(token)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdatePatientQR(ctx, p.ID, token, data); err != nil {
		return nil, err
	}
	p.QRAccessToken = token
	p.QRCodeData = data
	return p, nil
}

func (s *Service) renderQR(token string) (string, error) {
	url := fmt.Sprintf("%s/access/%s", s.frontendURL, token)
	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("failed to render qr code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// AccessByQRToken resolves an access token to a clinical profile. Every
// successful resolution is audited and the patient is notified; neither step
// blocks the access.
func (s *Service) AccessByQRToken(ctx context.Context, token string, client AccessContext) (*models.Patient, error) {
	p, err := s.store.GetPatientByQRToken(ctx, token)
	if err != nil {
		return nil, mapNotFound(err)
	}

	s.recordAccess(ctx, p, client)
	if s.notifier != nil {
		s.notifier.NotifyAccess(ctx, p, client.AccessedBy)
	}
	return p, nil
}

// AccessContext describes who opened a record through the QR channel.
type AccessContext struct {
	AccessedBy string
	IPAddress  string
	Location   string
}

func (s *Service) recordAccess(ctx context.Context, p *models.Patient, client AccessContext) {
	desc := "medical record accessed via QR code"
	if client.AccessedBy != "" {
		desc = fmt.Sprintf("medical record accessed via QR code by %s", client.AccessedBy)
	}
	err := s.store.CreateActivityLog(ctx, &models.ActivityLog{
		UserID:      p.UserID,
		PatientID:   p.ID,
		Action:      models.ActionRecordAccess,
		Description: desc,
		IPAddress:   client.IPAddress,
		Location:    client.Location,
	})
	if err != nil {
		log.Printf("[PATIENTS] failed to record qr access audit entry for patient %s: %v", p.ID, err)
	}
}

func mapNotFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
