// Package payments manages the monthly obligation ledger and settlement.
package payments

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/odsie/odsie/internal/models"
	"github.com/odsie/odsie/internal/store"
)

var (
	// ErrNotFound means the obligation does not exist.
	ErrNotFound = errors.New("payment not found")

	// ErrAlreadyPaid means the obligation was settled before; repeated
	// settlement fails cleanly and changes nothing.
	ErrAlreadyPaid = errors.New("payment already settled")

	// ErrInvalidPeriod means the billing period is out of range.
	ErrInvalidPeriod = errors.New("invalid billing period")
)

// Ledger is the subset of store operations the payment service needs.
type Ledger interface {
	CreatePayment(ctx context.Context, patientID string, month, year int, amount float64) (*models.Payment, error)
	GetPaymentsByPatient(ctx context.Context, patientID string) ([]*models.Payment, error)
	GetPendingPaymentsByPatient(ctx context.Context, patientID string) ([]*models.Payment, error)
	GetAllPayments(ctx context.Context) ([]*models.Payment, error)
	GetPaymentStatistics(ctx context.Context) (*models.PaymentStatistics, error)
	SettlePayment(ctx context.Context, id, method, reference string) (*models.Payment, error)
}

// Service exposes the payment ledger operations.
type Service struct {
	ledger Ledger
}

// NewService wires the service to its ledger.
func NewService(ledger Ledger) *Service {
	return &Service{ledger: ledger}
}

// CreateMonthly registers one pending obligation for a billing period.
func (s *Service) CreateMonthly(ctx context.Context, patientID string, month, year int, amount float64) (*models.Payment, error) {
	if month < 1 || month > 12 || year < 2000 {
		return nil, ErrInvalidPeriod
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidPeriod)
	}
	return s.ledger.CreatePayment(ctx, patientID, month, year, amount)
}

// Settle marks an obligation paid and reactivates the owning account when it
// was the last pending one. Reactivation never touches a SUSPENDED account;
// only the payment-derived BLOCKED state is cleared.
func (s *Service) Settle(ctx context.Context, obligationID, method, reference string) (*models.Payment, error) {
	p, err := s.ledger.SettlePayment(ctx, obligationID, method, reference)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, ErrNotFound
		case errors.Is(err, store.ErrAlreadyPaid):
			return nil, ErrAlreadyPaid
		}
		return nil, err
	}

	log.Printf("[PAYMENTS] settled obligation %s (%d/%d) for patient %s via %s",
		p.ID, p.Month, p.Year, p.PatientID, method)
	return p, nil
}

// ListByPatient returns a patient's full ledger.
func (s *Service) ListByPatient(ctx context.Context, patientID string) ([]*models.Payment, error) {
	return s.ledger.GetPaymentsByPatient(ctx, patientID)
}

// ListPending returns a patient's unpaid obligations.
func (s *Service) ListPending(ctx context.Context, patientID string) ([]*models.Payment, error) {
	return s.ledger.GetPendingPaymentsByPatient(ctx, patientID)
}

// ListAll returns the whole ledger.
func (s *Service) ListAll(ctx context.Context) ([]*models.Payment, error) {
	return s.ledger.GetAllPayments(ctx)
}

// Statistics aggregates the ledger for the admin dashboard.
func (s *Service) Statistics(ctx context.Context) (*models.PaymentStatistics, error) {
	return s.ledger.GetPaymentStatistics(ctx)
}
