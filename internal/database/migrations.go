package database

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
)

// Migration is one versioned schema change.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns all migrations for the given database type.
func GetMigrations(dbType string) []Migration {
	if dbType == "postgres" {
		return getPostgresMigrations()
	}
	return getSQLiteMigrations()
}

func getPostgresMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create users table",
			SQL: `CREATE TABLE IF NOT EXISTS users (
				id UUID PRIMARY KEY,
				email VARCHAR(255) UNIQUE NOT NULL,
				cedula VARCHAR(50) UNIQUE NOT NULL,
				password_hash VARCHAR(255) NOT NULL,
				role VARCHAR(20) NOT NULL,
				first_names VARCHAR(255) NOT NULL DEFAULT '',
				last_names VARCHAR(255) NOT NULL DEFAULT '',
				phone VARCHAR(50) NOT NULL DEFAULT '',
				birth_date DATE,
				address TEXT NOT NULL DEFAULT '',
				registry_number VARCHAR(100) NOT NULL DEFAULT '',
				specialty VARCHAR(100) NOT NULL DEFAULT '',
				account_status VARCHAR(20) NOT NULL DEFAULT 'ACTIVE',
				email_verified BOOLEAN NOT NULL DEFAULT FALSE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			)`,
		},
		{
			Version:     2,
			Description: "Create patients table",
			SQL: `CREATE TABLE IF NOT EXISTS patients (
				id UUID PRIMARY KEY,
				user_id UUID NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
				allergies TEXT NOT NULL DEFAULT '[]',
				chronic_diseases TEXT NOT NULL DEFAULT '[]',
				current_medications TEXT NOT NULL DEFAULT '[]',
				emergency_contacts TEXT NOT NULL DEFAULT '[]',
				qr_access_token UUID NOT NULL UNIQUE,
				qr_code_data TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			)`,
		},
		{
			Version:     3,
			Description: "Create payments table",
			SQL: `CREATE TABLE IF NOT EXISTS payments (
				id UUID PRIMARY KEY,
				patient_id UUID NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
				month INTEGER NOT NULL,
				year INTEGER NOT NULL,
				amount DECIMAL(10,2) NOT NULL,
				status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
				paid_at TIMESTAMP WITH TIME ZONE,
				method VARCHAR(50) NOT NULL DEFAULT '',
				reference VARCHAR(255) NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				UNIQUE (patient_id, month, year)
			)`,
		},
		{
			Version:     4,
			Description: "Create medical_records table",
			SQL: `CREATE TABLE IF NOT EXISTS medical_records (
				id UUID PRIMARY KEY,
				patient_id UUID NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
				doctor_id UUID NOT NULL REFERENCES users(id),
				consulted_at TIMESTAMP WITH TIME ZONE NOT NULL,
				reason TEXT NOT NULL,
				symptoms TEXT NOT NULL DEFAULT '',
				diagnosis TEXT NOT NULL DEFAULT '',
				treatment TEXT NOT NULL DEFAULT '',
				observations TEXT NOT NULL DEFAULT '',
				signature TEXT NOT NULL DEFAULT '',
				signed_by VARCHAR(255) NOT NULL DEFAULT '',
				signed_at TIMESTAMP WITH TIME ZONE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			)`,
		},
		{
			Version:     5,
			Description: "Create medical_files table",
			SQL: `CREATE TABLE IF NOT EXISTS medical_files (
				id UUID PRIMARY KEY,
				patient_id UUID NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
				uploaded_by UUID NOT NULL REFERENCES users(id),
				file_name VARCHAR(255) NOT NULL,
				file_url TEXT NOT NULL,
				storage_key TEXT NOT NULL DEFAULT '',
				file_size BIGINT NOT NULL DEFAULT 0,
				mime_type VARCHAR(100) NOT NULL DEFAULT '',
				file_type VARCHAR(50) NOT NULL,
				folder VARCHAR(100) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			)`,
		},
		{
			Version:     6,
			Description: "Create notifications table",
			SQL: `CREATE TABLE IF NOT EXISTS notifications (
				id UUID PRIMARY KEY,
				user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				kind VARCHAR(50) NOT NULL,
				title VARCHAR(255) NOT NULL,
				message TEXT NOT NULL,
				read BOOLEAN NOT NULL DEFAULT FALSE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			)`,
		},
		{
			Version:     7,
			Description: "Create activity_logs table",
			SQL: `CREATE TABLE IF NOT EXISTS activity_logs (
				id UUID PRIMARY KEY,
				user_id UUID REFERENCES users(id) ON DELETE SET NULL,
				patient_id UUID REFERENCES patients(id) ON DELETE SET NULL,
				action VARCHAR(100) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				ip_address VARCHAR(64) NOT NULL DEFAULT '',
				location VARCHAR(255) NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			)`,
		},
		{
			Version:     8,
			Description: "Create indexes",
			SQL: `CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
				CREATE INDEX IF NOT EXISTS idx_users_cedula ON users(cedula);
				CREATE INDEX IF NOT EXISTS idx_patients_user_id ON patients(user_id);
				CREATE INDEX IF NOT EXISTS idx_patients_qr_token ON patients(qr_access_token);
				CREATE INDEX IF NOT EXISTS idx_payments_patient_id ON payments(patient_id);
				CREATE INDEX IF NOT EXISTS idx_payments_status ON payments(status);
				CREATE INDEX IF NOT EXISTS idx_records_patient_id ON medical_records(patient_id);
				CREATE INDEX IF NOT EXISTS idx_records_doctor_id ON medical_records(doctor_id);
				CREATE INDEX IF NOT EXISTS idx_files_patient_id ON medical_files(patient_id);
				CREATE INDEX IF NOT EXISTS idx_notifications_user_id ON notifications(user_id);
				CREATE INDEX IF NOT EXISTS idx_activity_user_id ON activity_logs(user_id);
				CREATE INDEX IF NOT EXISTS idx_activity_patient_id ON activity_logs(patient_id)`,
		},
	}
}

func getSQLiteMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create users table",
			SQL: `CREATE TABLE IF NOT EXISTS users (
				id TEXT PRIMARY KEY,
				email TEXT UNIQUE NOT NULL,
				cedula TEXT UNIQUE NOT NULL,
				password_hash TEXT NOT NULL,
				role TEXT NOT NULL,
				first_names TEXT NOT NULL DEFAULT '',
				last_names TEXT NOT NULL DEFAULT '',
				phone TEXT NOT NULL DEFAULT '',
				birth_date DATETIME,
				address TEXT NOT NULL DEFAULT '',
				registry_number TEXT NOT NULL DEFAULT '',
				specialty TEXT NOT NULL DEFAULT '',
				account_status TEXT NOT NULL DEFAULT 'ACTIVE',
				email_verified INTEGER NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
		},
		{
			Version:     2,
			Description: "Create patients table",
			SQL: `CREATE TABLE IF NOT EXISTS patients (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
				allergies TEXT NOT NULL DEFAULT '[]',
				chronic_diseases TEXT NOT NULL DEFAULT '[]',
				current_medications TEXT NOT NULL DEFAULT '[]',
				emergency_contacts TEXT NOT NULL DEFAULT '[]',
				qr_access_token TEXT NOT NULL UNIQUE,
				qr_code_data TEXT NOT NULL DEFAULT '',
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
		},
		{
			Version:     3,
			Description: "Create payments table",
			SQL: `CREATE TABLE IF NOT EXISTS payments (
				id TEXT PRIMARY KEY,
				patient_id TEXT NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
				month INTEGER NOT NULL,
				year INTEGER NOT NULL,
				amount REAL NOT NULL,
				status TEXT NOT NULL DEFAULT 'PENDING',
				paid_at DATETIME,
				method TEXT NOT NULL DEFAULT '',
				reference TEXT NOT NULL DEFAULT '',
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE (patient_id, month, year)
			)`,
		},
		{
			Version:     4,
			Description: "Create medical_records table",
			SQL: `CREATE TABLE IF NOT EXISTS medical_records (
				id TEXT PRIMARY KEY,
				patient_id TEXT NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
				doctor_id TEXT NOT NULL REFERENCES users(id),
				consulted_at DATETIME NOT NULL,
				reason TEXT NOT NULL,
				symptoms TEXT NOT NULL DEFAULT '',
				diagnosis TEXT NOT NULL DEFAULT '',
				treatment TEXT NOT NULL DEFAULT '',
				observations TEXT NOT NULL DEFAULT '',
				signature TEXT NOT NULL DEFAULT '',
				signed_by TEXT NOT NULL DEFAULT '',
				signed_at DATETIME,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
		},
		{
			Version:     5,
			Description: "Create medical_files table",
			SQL: `CREATE TABLE IF NOT EXISTS medical_files (
				id TEXT PRIMARY KEY,
				patient_id TEXT NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
				uploaded_by TEXT NOT NULL REFERENCES users(id),
				file_name TEXT NOT NULL,
				file_url TEXT NOT NULL,
				storage_key TEXT NOT NULL DEFAULT '',
				file_size INTEGER NOT NULL DEFAULT 0,
				mime_type TEXT NOT NULL DEFAULT '',
				file_type TEXT NOT NULL,
				folder TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
		},
		{
			Version:     6,
			Description: "Create notifications table",
			SQL: `CREATE TABLE IF NOT EXISTS notifications (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				kind TEXT NOT NULL,
				title TEXT NOT NULL,
				message TEXT NOT NULL,
				read INTEGER NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
		},
		{
			Version:     7,
			Description: "Create activity_logs table",
			SQL: `CREATE TABLE IF NOT EXISTS activity_logs (
				id TEXT PRIMARY KEY,
				user_id TEXT REFERENCES users(id) ON DELETE SET NULL,
				patient_id TEXT REFERENCES patients(id) ON DELETE SET NULL,
				action TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				ip_address TEXT NOT NULL DEFAULT '',
				location TEXT NOT NULL DEFAULT '',
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
		},
		{
			Version:     8,
			Description: "Create indexes",
			SQL: `CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
				CREATE INDEX IF NOT EXISTS idx_users_cedula ON users(cedula);
				CREATE INDEX IF NOT EXISTS idx_patients_user_id ON patients(user_id);
				CREATE INDEX IF NOT EXISTS idx_patients_qr_token ON patients(qr_access_token);
				CREATE INDEX IF NOT EXISTS idx_payments_patient_id ON payments(patient_id);
				CREATE INDEX IF NOT EXISTS idx_payments_status ON payments(status);
				CREATE INDEX IF NOT EXISTS idx_records_patient_id ON medical_records(patient_id);
				CREATE INDEX IF NOT EXISTS idx_records_doctor_id ON medical_records(doctor_id);
				CREATE INDEX IF NOT EXISTS idx_files_patient_id ON medical_files(patient_id);
				CREATE INDEX IF NOT EXISTS idx_notifications_user_id ON notifications(user_id);
				CREATE INDEX IF NOT EXISTS idx_activity_user_id ON activity_logs(user_id);
				CREATE INDEX IF NOT EXISTS idx_activity_patient_id ON activity_logs(patient_id)`,
		},
	}
}

func createMigrationsTable(db *sql.DB, dbType string) error {
	var query string
	if dbType == "postgres" {
		query = `CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`
	} else {
		query = `CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`
	}
	_, err := db.Exec(query)
	return err
}

func getAppliedMigrations(db *sql.DB) (map[int]bool, error) {
	applied := make(map[int]bool)

	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return applied, err
	}
	defer rows.Close()

	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return applied, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func recordMigration(db *sql.DB, dbType string, version int) error {
	query := "INSERT INTO schema_migrations (version) VALUES (?)"
	if dbType == "postgres" {
		query = "INSERT INTO schema_migrations (version) VALUES ($1)"
	}
	_, err := db.Exec(query, version)
	return err
}

// RunMigrations applies all pending migrations in version order.
func RunMigrations(db *sql.DB, dbType string) error {
	if err := createMigrationsTable(db, dbType); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := getAppliedMigrations(db)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	for _, migration := range GetMigrations(dbType) {
		if applied[migration.Version] {
			continue
		}

		log.Printf("Applying migration %d: %s", migration.Version, migration.Description)

		// Split SQL by semicolon and execute each statement.
		for _, stmt := range strings.Split(migration.SQL, ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			if _, err := db.Exec(stmt); err != nil {
				return fmt.Errorf("failed to apply migration %d: %w", migration.Version, err)
			}
		}

		if err := recordMigration(db, dbType, migration.Version); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
