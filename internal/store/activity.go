package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/odsie/odsie/internal/models"
)

const activityColumns = `id, user_id, patient_id, action, description, ip_address,
	location, created_at`

func scanActivity(row interface{ Scan(...any) error }) (*models.ActivityLog, error) {
	l := &models.ActivityLog{}
	var userID, patientID sql.NullString
	err := row.Scan(
		&l.ID, &userID, &patientID, &l.Action, &l.Description,
		&l.IPAddress, &l.Location, &l.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	l.UserID = userID.String
	l.PatientID = patientID.String
	return l, nil
}

// CreateActivityLog inserts one audit entry. Empty user/patient IDs are
// stored as NULL so the foreign keys stay satisfied.
func (s *Store) CreateActivityLog(ctx context.Context, l *models.ActivityLog) error {
	l.ID = newID()
	l.CreatedAt = time.Now()

	var userID, patientID any
	if l.UserID != "" {
		userID = l.UserID
	}
	if l.PatientID != "" {
		patientID = l.PatientID
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO activity_logs
		(id, user_id, patient_id, action, description, ip_address, location, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		l.ID, userID, patientID, l.Action, l.Description, l.IPAddress, l.Location, l.CreatedAt,
	)
	return err
}

// GetAllActivityLogs returns the most recent entries up to limit.
func (s *Store) GetAllActivityLogs(ctx context.Context, limit int) ([]*models.ActivityLog, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(
		"SELECT "+activityColumns+" FROM activity_logs ORDER BY created_at DESC LIMIT ?"),
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectActivity(rows)
}

// GetActivityByUser returns a user's audit trail, newest first.
func (s *Store) GetActivityByUser(ctx context.Context, userID string) ([]*models.ActivityLog, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		"SELECT "+activityColumns+" FROM activity_logs WHERE user_id = ? ORDER BY created_at DESC"),
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectActivity(rows)
}

// GetActivityByPatient returns the audit trail touching a patient, newest first.
func (s *Store) GetActivityByPatient(ctx context.Context, patientID string) ([]*models.ActivityLog, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		"SELECT "+activityColumns+" FROM activity_logs WHERE patient_id = ? ORDER BY created_at DESC"),
		patientID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectActivity(rows)
}

func collectActivity(rows *sql.Rows) ([]*models.ActivityLog, error) {
	var logs []*models.ActivityLog
	for rows.Next() {
		l, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// GetActivityStatistics counts total entries and entries recorded today.
func (s *Store) GetActivityStatistics(ctx context.Context) (*models.ActivityStatistics, error) {
	stats := &models.ActivityStatistics{}

	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM activity_logs").Scan(&stats.TotalLogs); err != nil {
		return nil, err
	}

	midnight := time.Now().Truncate(24 * time.Hour)
	err := s.db.QueryRowContext(ctx, s.rebind(
		"SELECT COUNT(*) FROM activity_logs WHERE created_at >= ?"),
		midnight,
	).Scan(&stats.LogsToday)
	if err != nil {
		return nil, err
	}
	return stats, nil
}
