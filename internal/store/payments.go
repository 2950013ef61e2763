package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/odsie/odsie/internal/models"
)

// ErrAlreadyPaid is returned when settling an obligation that is already paid.
var ErrAlreadyPaid = errors.New("payment already settled")

const paymentColumns = `id, patient_id, month, year, amount, status, paid_at,
	method, reference, created_at, updated_at`

func scanPayment(row interface{ Scan(...any) error }) (*models.Payment, error) {
	p := &models.Payment{}
	var paidAt sql.NullTime
	err := row.Scan(
		&p.ID, &p.PatientID, &p.Month, &p.Year, &p.Amount, &p.Status,
		&paidAt, &p.Method, &p.Reference, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	if paidAt.Valid {
		p.PaidAt = &paidAt.Time
	}
	return p, nil
}

// CreatePayment inserts a pending monthly obligation for a patient.
func (s *Store) CreatePayment(ctx context.Context, patientID string, month, year int, amount float64) (*models.Payment, error) {
	now := time.Now()
	p := &models.Payment{
		ID:        newID(),
		PatientID: patientID,
		Month:     month,
		Year:      year,
		Amount:    amount,
		Status:    models.PaymentPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO payments
		(id, patient_id, month, year, amount, status, method, reference, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, '', '', ?, ?)`),
		p.ID, p.PatientID, p.Month, p.Year, p.Amount, p.Status, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetPaymentByID retrieves one obligation.
func (s *Store) GetPaymentByID(ctx context.Context, id string) (*models.Payment, error) {
	row := s.db.QueryRowContext(ctx,
		s.rebind("SELECT "+paymentColumns+" FROM payments WHERE id = ?"), id)
	return scanPayment(row)
}

// GetPaymentsByPatient returns all obligations for a patient, newest period first.
func (s *Store) GetPaymentsByPatient(ctx context.Context, patientID string) ([]*models.Payment, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		"SELECT "+paymentColumns+" FROM payments WHERE patient_id = ? ORDER BY year DESC, month DESC"),
		patientID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPayments(rows)
}

// GetPendingPaymentsByPatient returns pending obligations, oldest period first.
func (s *Store) GetPendingPaymentsByPatient(ctx context.Context, patientID string) ([]*models.Payment, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		"SELECT "+paymentColumns+` FROM payments
		WHERE patient_id = ? AND status = ? ORDER BY year ASC, month ASC`),
		patientID, models.PaymentPending,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPayments(rows)
}

// HasPendingPayments reports whether a patient owes anything.
func (s *Store) HasPendingPayments(ctx context.Context, patientID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, s.rebind(
		"SELECT COUNT(*) FROM payments WHERE patient_id = ? AND status = ?"),
		patientID, models.PaymentPending,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetAllPayments returns the whole ledger, newest first.
func (s *Store) GetAllPayments(ctx context.Context) ([]*models.Payment, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+paymentColumns+" FROM payments ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPayments(rows)
}

func collectPayments(rows *sql.Rows) ([]*models.Payment, error) {
	var payments []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// GetPaymentStatistics aggregates the ledger.
func (s *Store) GetPaymentStatistics(ctx context.Context) (*models.PaymentStatistics, error) {
	stats := &models.PaymentStatistics{}
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT
		COALESCE(SUM(CASE WHEN status = ? THEN amount ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status = ? THEN amount ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0)
		FROM payments`),
		models.PaymentPending, models.PaymentPaid,
		models.PaymentPending, models.PaymentPaid,
	).Scan(&stats.TotalPending, &stats.TotalPaid, &stats.CountPending, &stats.CountPaid)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// SettlePayment marks an obligation paid and, when it was the patient's last
// pending one, reactivates the owning account. The whole read-modify-write
// sequence runs in one transaction, and the reactivation only ever applies to
// BLOCKED accounts: an administrative suspension is never undone by a payment.
func (s *Store) SettlePayment(ctx context.Context, id, method, reference string) (*models.Payment, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		s.rebind("SELECT "+paymentColumns+" FROM payments WHERE id = ?"), id)
	p, err := scanPayment(row)
	if err != nil {
		return nil, err
	}
	if p.Status == models.PaymentPaid {
		return nil, ErrAlreadyPaid
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx, s.rebind(
		"UPDATE payments SET status = ?, paid_at = ?, method = ?, reference = ?, updated_at = ? WHERE id = ?"),
		models.PaymentPaid, now, method, reference, now, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to mark payment paid: %w", err)
	}

	var remaining int
	err = tx.QueryRowContext(ctx, s.rebind(
		"SELECT COUNT(*) FROM payments WHERE patient_id = ? AND status = ?"),
		p.PatientID, models.PaymentPending,
	).Scan(&remaining)
	if err != nil {
		return nil, err
	}

	if remaining == 0 {
		_, err = tx.ExecContext(ctx, s.rebind(`UPDATE users SET account_status = ?, updated_at = ?
			WHERE id = (SELECT user_id FROM patients WHERE id = ?) AND account_status = ?`),
			models.AccountActive, now, p.PatientID, models.AccountBlocked,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to reactivate account: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	p.Status = models.PaymentPaid
	p.PaidAt = &now
	p.Method = method
	p.Reference = reference
	p.UpdatedAt = now
	return p, nil
}
