// Package auth implements registration and the login gate: credentials are
// checked first, then the account status and payment policy decide whether a
// session token may be issued at all.
package auth

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/odsie/odsie/internal/models"
	"github.com/odsie/odsie/internal/store"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAccountBlocked means pending payments gate the account.
	ErrAccountBlocked = errors.New("account is blocked, please settle your pending payments")

	// ErrAccountSuspended means an administrator disabled the account.
	ErrAccountSuspended = errors.New("account has been suspended")

	ErrUserExists           = errors.New("a user with that email or cedula already exists")
	ErrRegistrationRequired = errors.New("doctors must provide their professional registration number")
	ErrInvalidInput         = errors.New("email or password does not meet requirements")
)

// UserStore is the subset of store operations the gate needs.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UserExists(ctx context.Context, email, cedula string) (bool, error)
	CreateUser(ctx context.Context, u *models.User) error
	UpdateAccountStatus(ctx context.Context, userID string, status models.AccountStatus) error
	GetPatientByUserID(ctx context.Context, userID string) (*models.Patient, error)
	CreatePatient(ctx context.Context, userID string) (*models.Patient, error)
	HasPendingPayments(ctx context.Context, patientID string) (bool, error)
}

// AuditLog records audit entries. Failures never block the triggering
// operation.
type AuditLog interface {
	CreateActivityLog(ctx context.Context, l *models.ActivityLog) error
}

// ClientContext carries request metadata into the audit trail.
type ClientContext struct {
	IPAddress string
	Location  string
}

// Service is the authentication gate.
type Service struct {
	store  UserStore
	audit  AuditLog
	tokens *TokenManager
}

// NewService wires the gate to its collaborators.
func NewService(s UserStore, audit AuditLog, tokens *TokenManager) *Service {
	return &Service{store: s, audit: audit, tokens: tokens}
}

// Authenticate decides whether to issue a session token for the credentials.
//
// For patients the payment gate is recomputed here: a stale ACTIVE status is
// corrected by a lazy write rather than a background sweep, since blocking
// only matters at the moment a new session is requested.
func (s *Service) Authenticate(ctx context.Context, email, password string, client ClientContext) (*models.User, string, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if !user.ValidatePassword(password) {
		return nil, "", ErrInvalidCredentials
	}

	switch user.AccountStatus {
	case models.AccountBlocked:
		return nil, "", ErrAccountBlocked
	case models.AccountSuspended:
		return nil, "", ErrAccountSuspended
	}

	if user.Role == models.RolePatient {
		blocked, err := s.checkPaymentGate(ctx, user)
		if err != nil {
			return nil, "", err
		}
		if blocked {
			return nil, "", ErrAccountBlocked
		}
	}

	s.recordLogin(ctx, user, client)

	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, "", err
	}

	return user.Sanitized(), token, nil
}

// checkPaymentGate blocks the account when pending obligations exist.
func (s *Service) checkPaymentGate(ctx context.Context, user *models.User) (bool, error) {
	patient, err := s.store.GetPatientByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Patient user without a clinical profile: nothing to gate on.
			return false, nil
		}
		return false, err
	}

	pending, err := s.store.HasPendingPayments(ctx, patient.ID)
	if err != nil {
		return false, err
	}
	if !pending {
		return false, nil
	}

	if err := s.store.UpdateAccountStatus(ctx, user.ID, models.AccountBlocked); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) recordLogin(ctx context.Context, user *models.User, client ClientContext) {
	err := s.audit.CreateActivityLog(ctx, &models.ActivityLog{
		UserID:      user.ID,
		Action:      models.ActionLogin,
		Description: "successful login",
		IPAddress:   client.IPAddress,
		Location:    client.Location,
	})
	if err != nil {
		log.Printf("[AUTH] failed to record login audit entry for user %s: %v", user.ID, err)
	}
}

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Email      string
	Password   string
	Cedula     string
	Role       models.Role
	FirstNames string
	LastNames  string
	Phone      string
	BirthDate  *time.Time
	Address    string
	RegistryNo string
	Specialty  string
}

// Register creates a user account. Patients get a clinical profile with a
// fresh QR access token, and a session token is returned immediately.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	role := in.Role
	if role == "" {
		role = models.RolePatient
	}

	if !ValidateEmail(in.Email) || !ValidatePassword(in.Password) {
		return nil, "", ErrInvalidInput
	}

	exists, err := s.store.UserExists(ctx, in.Email, in.Cedula)
	if err != nil {
		return nil, "", err
	}
	if exists {
		return nil, "", ErrUserExists
	}

	if role == models.RoleDoctor && in.RegistryNo == "" {
		return nil, "", ErrRegistrationRequired
	}

	user, err := models.NewUser(in.Email, in.Cedula, in.Password, role)
	if err != nil {
		return nil, "", err
	}
	user.FirstNames = in.FirstNames
	user.LastNames = in.LastNames
	user.Phone = in.Phone
	user.BirthDate = in.BirthDate
	user.Address = in.Address
	user.RegistryNo = in.RegistryNo
	user.Specialty = in.Specialty

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, "", err
	}

	if role == models.RolePatient {
		if _, err := s.store.CreatePatient(ctx, user.ID); err != nil {
			return nil, "", err
		}
	}

	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, "", err
	}

	return user.Sanitized(), token, nil
}

// CurrentUser loads the sanitized account for a validated token subject.
func (s *Service) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Sanitized(), nil
}
