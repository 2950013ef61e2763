package payments

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odsie/odsie/internal/models"
	"github.com/odsie/odsie/internal/store"
)

type fakeLedger struct {
	payments map[string]*models.Payment
	nextID   int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{payments: map[string]*models.Payment{}}
}

func (f *fakeLedger) CreatePayment(_ context.Context, patientID string, month, year int, amount float64) (*models.Payment, error) {
	f.nextID++
	p := &models.Payment{
		ID:        "pay-" + string(rune('0'+f.nextID)),
		PatientID: patientID,
		Month:     month,
		Year:      year,
		Amount:    amount,
		Status:    models.PaymentPending,
	}
	f.payments[p.ID] = p
	return p, nil
}

func (f *fakeLedger) GetPaymentsByPatient(_ context.Context, patientID string) ([]*models.Payment, error) {
	var out []*models.Payment
	for _, p := range f.payments {
		if p.PatientID == patientID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeLedger) GetPendingPaymentsByPatient(ctx context.Context, patientID string) ([]*models.Payment, error) {
	all, _ := f.GetPaymentsByPatient(ctx, patientID)
	var out []*models.Payment
	for _, p := range all {
		if p.Status == models.PaymentPending {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeLedger) GetAllPayments(_ context.Context) ([]*models.Payment, error) {
	var out []*models.Payment
	for _, p := range f.payments {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeLedger) GetPaymentStatistics(_ context.Context) (*models.PaymentStatistics, error) {
	stats := &models.PaymentStatistics{}
	for _, p := range f.payments {
		if p.Status == models.PaymentPaid {
			stats.CountPaid++
			stats.TotalPaid += p.Amount
		} else {
			stats.CountPending++
			stats.TotalPending += p.Amount
		}
	}
	return stats, nil
}

func (f *fakeLedger) SettlePayment(_ context.Context, id, method, reference string) (*models.Payment, error) {
	p, ok := f.payments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if p.Status == models.PaymentPaid {
		return nil, store.ErrAlreadyPaid
	}
	now := time.Now()
	p.Status = models.PaymentPaid
	p.PaidAt = &now
	p.Method = method
	p.Reference = reference
	return p, nil
}

func TestCreateMonthlyValidation(t *testing.T) {
	svc := NewService(newFakeLedger())
	ctx := context.Background()

	_, err := svc.CreateMonthly(ctx, "patient-1", 0, 2025, 30)
	assert.ErrorIs(t, err, ErrInvalidPeriod)

	_, err = svc.CreateMonthly(ctx, "patient-1", 13, 2025, 30)
	assert.ErrorIs(t, err, ErrInvalidPeriod)

	_, err = svc.CreateMonthly(ctx, "patient-1", 1, 1999, 30)
	assert.ErrorIs(t, err, ErrInvalidPeriod)

	_, err = svc.CreateMonthly(ctx, "patient-1", 1, 2025, 0)
	assert.ErrorIs(t, err, ErrInvalidPeriod)

	p, err := svc.CreateMonthly(ctx, "patient-1", 1, 2025, 30)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, p.Status)
}

func TestSettleMapsLedgerErrors(t *testing.T) {
	ledger := newFakeLedger()
	svc := NewService(ledger)
	ctx := context.Background()

	created, err := svc.CreateMonthly(ctx, "patient-1", 1, 2025, 30)
	require.NoError(t, err)

	_, err = svc.Settle(ctx, "missing", "cash", "")
	assert.ErrorIs(t, err, ErrNotFound)

	paid, err := svc.Settle(ctx, created.ID, "transfer", "ref-9")
	require.NoError(t, err)
	assert.True(t, paid.IsPaid())
	assert.Equal(t, "transfer", paid.Method)
	assert.Equal(t, "ref-9", paid.Reference)

	_, err = svc.Settle(ctx, created.ID, "cash", "")
	assert.ErrorIs(t, err, ErrAlreadyPaid)
}

func TestListPendingFiltersSettled(t *testing.T) {
	ledger := newFakeLedger()
	svc := NewService(ledger)
	ctx := context.Background()

	a, _ := svc.CreateMonthly(ctx, "patient-1", 1, 2025, 30)
	svc.CreateMonthly(ctx, "patient-1", 2, 2025, 30)

	_, err := svc.Settle(ctx, a.ID, "cash", "")
	require.NoError(t, err)

	pending, err := svc.ListPending(ctx, "patient-1")
	assert.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].Month)
}
