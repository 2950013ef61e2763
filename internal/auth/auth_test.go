package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odsie/odsie/internal/models"
	"github.com/odsie/odsie/internal/store"
)

type fakeStore struct {
	users    map[string]*models.User // by email
	patients map[string]*models.Patient
	pending  map[string]bool // by patient ID
	audits   []*models.ActivityLog
	auditErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    map[string]*models.User{},
		patients: map[string]*models.Patient{},
		pending:  map[string]bool{},
	}
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) UserExists(_ context.Context, email, cedula string) (bool, error) {
	for _, u := range f.users {
		if u.Email == email || u.Cedula == cedula {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CreateUser(_ context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = "user-" + u.Email
	}
	f.users[u.Email] = u
	return nil
}

func (f *fakeStore) UpdateAccountStatus(_ context.Context, userID string, status models.AccountStatus) error {
	for _, u := range f.users {
		if u.ID == userID {
			u.AccountStatus = status
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) GetPatientByUserID(_ context.Context, userID string) (*models.Patient, error) {
	p, ok := f.patients[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) CreatePatient(_ context.Context, userID string) (*models.Patient, error) {
	p := &models.Patient{ID: "patient-" + userID, UserID: userID, QRAccessToken: "qr-" + userID}
	f.patients[userID] = p
	return p, nil
}

func (f *fakeStore) HasPendingPayments(_ context.Context, patientID string) (bool, error) {
	return f.pending[patientID], nil
}

func (f *fakeStore) CreateActivityLog(_ context.Context, l *models.ActivityLog) error {
	if f.auditErr != nil {
		return f.auditErr
	}
	f.audits = append(f.audits, l)
	return nil
}

func newTestService(f *fakeStore) *Service {
	return NewService(f, f, NewTokenManager("test-secret", time.Hour))
}

func seedUser(t *testing.T, f *fakeStore, email string, role models.Role) *models.User {
	t.Helper()
	u, err := models.NewUser(email, "ced-"+email, "password123", role)
	require.NoError(t, err)
	require.NoError(t, f.CreateUser(context.Background(), u))
	return u
}

func TestAuthenticateSuccess(t *testing.T) {
	f := newFakeStore()
	seedUser(t, f, "doc@example.com", models.RoleDoctor)
	svc := newTestService(f)

	user, token, err := svc.Authenticate(context.Background(), "doc@example.com", "password123", ClientContext{IPAddress: "10.0.0.1"})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Empty(t, user.Password)

	require.Len(t, f.audits, 1)
	assert.Equal(t, models.ActionLogin, f.audits[0].Action)
	assert.Equal(t, "10.0.0.1", f.audits[0].IPAddress)
}

func TestAuthenticateSameErrorForUnknownEmailAndWrongPassword(t *testing.T) {
	f := newFakeStore()
	seedUser(t, f, "doc@example.com", models.RoleDoctor)
	svc := newTestService(f)

	_, _, unknownErr := svc.Authenticate(context.Background(), "nobody@example.com", "password123", ClientContext{})
	_, _, wrongPassErr := svc.Authenticate(context.Background(), "doc@example.com", "wrong", ClientContext{})

	assert.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	assert.ErrorIs(t, wrongPassErr, ErrInvalidCredentials)
	assert.Equal(t, unknownErr.Error(), wrongPassErr.Error())
}

func TestAuthenticateBlockedAndSuspended(t *testing.T) {
	f := newFakeStore()
	blocked := seedUser(t, f, "blocked@example.com", models.RolePatient)
	blocked.AccountStatus = models.AccountBlocked
	suspended := seedUser(t, f, "suspended@example.com", models.RolePatient)
	suspended.AccountStatus = models.AccountSuspended
	svc := newTestService(f)

	_, _, err := svc.Authenticate(context.Background(), "blocked@example.com", "password123", ClientContext{})
	assert.ErrorIs(t, err, ErrAccountBlocked)

	_, _, err = svc.Authenticate(context.Background(), "suspended@example.com", "password123", ClientContext{})
	assert.ErrorIs(t, err, ErrAccountSuspended)

	assert.Empty(t, f.audits, "failed logins must not be recorded as successful")
}

func TestAuthenticatePatientWithPendingPaymentsGetsBlocked(t *testing.T) {
	f := newFakeStore()
	u := seedUser(t, f, "pat@example.com", models.RolePatient)
	p, _ := f.CreatePatient(context.Background(), u.ID)
	f.pending[p.ID] = true
	svc := newTestService(f)

	_, _, err := svc.Authenticate(context.Background(), "pat@example.com", "password123", ClientContext{})
	assert.ErrorIs(t, err, ErrAccountBlocked)

	// The stale ACTIVE status was corrected by the gate.
	assert.Equal(t, models.AccountBlocked, u.AccountStatus)
}

func TestAuthenticatePatientWithoutProfileOrDebtLogsIn(t *testing.T) {
	f := newFakeStore()
	withProfile := seedUser(t, f, "pat@example.com", models.RolePatient)
	f.CreatePatient(context.Background(), withProfile.ID)
	seedUser(t, f, "bare@example.com", models.RolePatient)
	svc := newTestService(f)

	_, token, err := svc.Authenticate(context.Background(), "pat@example.com", "password123", ClientContext{})
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	_, token, err = svc.Authenticate(context.Background(), "bare@example.com", "password123", ClientContext{})
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestAuthenticateAuditFailureDoesNotBlockLogin(t *testing.T) {
	f := newFakeStore()
	seedUser(t, f, "doc@example.com", models.RoleDoctor)
	f.auditErr = assert.AnError
	svc := newTestService(f)

	_, token, err := svc.Authenticate(context.Background(), "doc@example.com", "password123", ClientContext{})
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestRegisterPatientCreatesProfile(t *testing.T) {
	f := newFakeStore()
	svc := newTestService(f)

	user, token, err := svc.Register(context.Background(), RegisterInput{
		Email:    "ana@example.com",
		Password: "password123",
		Cedula:   "1712345678",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, models.RolePatient, user.Role)
	assert.Empty(t, user.Password)

	p, err := f.GetPatientByUserID(context.Background(), user.ID)
	assert.NoError(t, err)
	assert.NotEmpty(t, p.QRAccessToken)
}

func TestRegisterDuplicate(t *testing.T) {
	f := newFakeStore()
	seedUser(t, f, "ana@example.com", models.RolePatient)
	svc := newTestService(f)

	_, _, err := svc.Register(context.Background(), RegisterInput{
		Email:    "ana@example.com",
		Password: "password123",
		Cedula:   "other",
	})
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestRegisterDoctorRequiresRegistryNumber(t *testing.T) {
	f := newFakeStore()
	svc := newTestService(f)

	_, _, err := svc.Register(context.Background(), RegisterInput{
		Email:    "doc@example.com",
		Password: "password123",
		Cedula:   "0912345678",
		Role:     models.RoleDoctor,
	})
	assert.ErrorIs(t, err, ErrRegistrationRequired)

	user, _, err := svc.Register(context.Background(), RegisterInput{
		Email:      "doc@example.com",
		Password:   "password123",
		Cedula:     "0912345678",
		Role:       models.RoleDoctor,
		RegistryNo: "MSP-1234",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleDoctor, user.Role)

	// Doctors do not get a clinical profile.
	_, err = f.GetPatientByUserID(context.Background(), user.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
