package store

import (
	"context"
	"time"

	"github.com/odsie/odsie/internal/models"
)

// CreateNotification inserts an unread notification for a user.
func (s *Store) CreateNotification(ctx context.Context, userID, kind, title, message string) (*models.Notification, error) {
	n := &models.Notification{
		ID:        newID(),
		UserID:    userID,
		Kind:      kind,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now(),
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO notifications
		(id, user_id, kind, title, message, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		n.ID, n.UserID, n.Kind, n.Title, n.Message, false, n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// GetNotificationsByUser returns a user's notifications, newest first.
func (s *Store) GetNotificationsByUser(ctx context.Context, userID string) ([]*models.Notification, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, user_id, kind, title, message, read, created_at
		FROM notifications WHERE user_id = ? ORDER BY created_at DESC`),
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		n := &models.Notification{}
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Title, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkNotificationRead marks one notification read. The user ID guards
// against marking someone else's notification.
func (s *Store) MarkNotificationRead(ctx context.Context, id, userID string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(
		"UPDATE notifications SET read = ? WHERE id = ? AND user_id = ?"),
		true, id, userID,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

// MarkAllNotificationsRead marks every unread notification of a user read.
func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		"UPDATE notifications SET read = ? WHERE user_id = ? AND read = ?"),
		true, userID, false,
	)
	return err
}
