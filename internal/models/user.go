package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User represents a system user of any role.
type User struct {
	ID            string        `json:"id" db:"id"`
	Email         string        `json:"email" db:"email"`
	Cedula        string        `json:"cedula" db:"cedula"` // national identity number
	Password      string        `json:"-" db:"password_hash"`
	Role          Role          `json:"role" db:"role"`
	FirstNames    string        `json:"first_names" db:"first_names"`
	LastNames     string        `json:"last_names" db:"last_names"`
	Phone         string        `json:"phone,omitempty" db:"phone"`
	BirthDate     *time.Time    `json:"birth_date,omitempty" db:"birth_date"`
	Address       string        `json:"address,omitempty" db:"address"`
	RegistryNo    string        `json:"registry_number,omitempty" db:"registry_number"` // professional registration, doctors only
	Specialty     string        `json:"specialty,omitempty" db:"specialty"`
	AccountStatus AccountStatus `json:"account_status" db:"account_status"`
	EmailVerified bool          `json:"email_verified" db:"email_verified"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// NewUser creates a user with a bcrypt-hashed password.
func NewUser(email, cedula, password string, role Role) (*User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &User{
		Email:         email,
		Cedula:        cedula,
		Password:      string(hashed),
		Role:          role,
		AccountStatus: AccountActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// ValidatePassword checks a plaintext password against the stored hash.
func (u *User) ValidatePassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

// FullName returns the user's display name.
func (u *User) FullName() string {
	if u.FirstNames == "" {
		return u.LastNames
	}
	if u.LastNames == "" {
		return u.FirstNames
	}
	return u.FirstNames + " " + u.LastNames
}

// Sanitized returns a copy of the user with the credential hash stripped.
func (u *User) Sanitized() *User {
	c := *u
	c.Password = ""
	return &c
}
