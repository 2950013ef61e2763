package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/odsie/odsie/internal/models"
)

const userColumns = `id, email, cedula, password_hash, role, first_names, last_names,
	phone, birth_date, address, registry_number, specialty, account_status,
	email_verified, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	var birthDate sql.NullTime
	err := row.Scan(
		&u.ID, &u.Email, &u.Cedula, &u.Password, &u.Role, &u.FirstNames,
		&u.LastNames, &u.Phone, &birthDate, &u.Address, &u.RegistryNo,
		&u.Specialty, &u.AccountStatus, &u.EmailVerified, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	if birthDate.Valid {
		u.BirthDate = &birthDate.Time
	}
	return u, nil
}

// CreateUser inserts a user, assigning its ID and timestamps.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	u.ID = newID()
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now

	var birthDate any
	if u.BirthDate != nil {
		birthDate = *u.BirthDate
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO users
		(id, email, cedula, password_hash, role, first_names, last_names, phone,
		birth_date, address, registry_number, specialty, account_status,
		email_verified, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		u.ID, u.Email, u.Cedula, u.Password, u.Role, u.FirstNames, u.LastNames,
		u.Phone, birthDate, u.Address, u.RegistryNo, u.Specialty,
		u.AccountStatus, u.EmailVerified, u.CreatedAt, u.UpdatedAt,
	)
	return err
}

// GetUserByEmail retrieves a user by exact email match.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		s.rebind("SELECT "+userColumns+" FROM users WHERE email = ?"), email)
	return scanUser(row)
}

// GetUserByID retrieves a user by ID.
func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		s.rebind("SELECT "+userColumns+" FROM users WHERE id = ?"), id)
	return scanUser(row)
}

// UserExists reports whether a user with the given email or cedula exists.
func (s *Store) UserExists(ctx context.Context, email, cedula string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		s.rebind("SELECT COUNT(*) FROM users WHERE email = ? OR cedula = ?"),
		email, cedula,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetAllUsers returns every user, newest first.
func (s *Store) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

// SearchUsers matches names or cedula against the given query string.
func (s *Store) SearchUsers(ctx context.Context, query string) ([]*models.User, error) {
	like := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, s.rebind(
		"SELECT "+userColumns+` FROM users
		WHERE first_names LIKE ? OR last_names LIKE ? OR cedula LIKE ?
		ORDER BY last_names, first_names`),
		like, like, like,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func collectUsers(rows *sql.Rows) ([]*models.User, error) {
	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUserProfile updates the mutable profile fields. Email, cedula, role
// and the credential hash are never changed through this path.
func (s *Store) UpdateUserProfile(ctx context.Context, u *models.User) error {
	var birthDate any
	if u.BirthDate != nil {
		birthDate = *u.BirthDate
	}

	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE users SET
		first_names = ?, last_names = ?, phone = ?, birth_date = ?, address = ?,
		registry_number = ?, specialty = ?, updated_at = ?
		WHERE id = ?`),
		u.FirstNames, u.LastNames, u.Phone, birthDate, u.Address,
		u.RegistryNo, u.Specialty, time.Now(), u.ID,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

// UpdateAccountStatus sets the account status unconditionally.
func (s *Store) UpdateAccountStatus(ctx context.Context, userID string, status models.AccountStatus) error {
	res, err := s.db.ExecContext(ctx,
		s.rebind("UPDATE users SET account_status = ?, updated_at = ? WHERE id = ?"),
		status, time.Now(), userID,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

// DeleteUser removes a user and, via cascade, its dependent rows.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM users WHERE id = ?"), id)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
