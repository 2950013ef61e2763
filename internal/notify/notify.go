// Package notify delivers in-app notifications and their email copies.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/odsie/odsie/internal/models"
	"github.com/odsie/odsie/internal/store"
)

var ErrNotFound = errors.New("notification not found")

// NotificationStore is the subset of store operations the notifier needs.
type NotificationStore interface {
	CreateNotification(ctx context.Context, userID, kind, title, message string) (*models.Notification, error)
	GetNotificationsByUser(ctx context.Context, userID string) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) error
}

// EmailSender delivers one message. Implementations must not block on
// retries; a failed send is the caller's to log.
type EmailSender interface {
	Send(to, subject, htmlBody string) error
}

// Notifier fans a notification out to the in-app feed and, when an address
// is known, to email. Email failures are logged and never propagated.
type Notifier struct {
	store NotificationStore
	email EmailSender
}

func New(s NotificationStore, email EmailSender) *Notifier {
	return &Notifier{store: s, email: email}
}

// Notify records an in-app notification.
func (n *Notifier) Notify(ctx context.Context, userID, kind, title, message string) (*models.Notification, error) {
	return n.store.CreateNotification(ctx, userID, kind, title, message)
}

// ListByUser returns a user's notification feed.
func (n *Notifier) ListByUser(ctx context.Context, userID string) ([]*models.Notification, error) {
	return n.store.GetNotificationsByUser(ctx, userID)
}

// MarkRead marks one of the user's notifications read.
func (n *Notifier) MarkRead(ctx context.Context, id, userID string) error {
	if err := n.store.MarkNotificationRead(ctx, id, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// MarkAllRead marks the whole feed read.
func (n *Notifier) MarkAllRead(ctx context.Context, userID string) error {
	return n.store.MarkAllNotificationsRead(ctx, userID)
}

// NotifyAccess tells a patient their record was opened through the QR
// channel. Called from the access path, so nothing here may fail the access:
// errors are logged and swallowed.
func (n *Notifier) NotifyAccess(ctx context.Context, patient *models.Patient, accessedBy string) {
	who := accessedBy
	if who == "" {
		who = "a healthcare professional"
	}
	title := "Your medical record was accessed"
	message := fmt.Sprintf("Your medical record was accessed via QR code by %s on %s.",
		who, time.Now().Format("02 Jan 2006 15:04"))

	if _, err := n.store.CreateNotification(ctx, patient.UserID, models.NotificationAccess, title, message); err != nil {
		log.Printf("[NOTIFY] failed to store access notification for user %s: %v", patient.UserID, err)
	}

	if n.email == nil || patient.User == nil || patient.User.Email == "" {
		return
	}
	body := accessEmailBody(patient.User.FullName(), who)
	if err := n.email.Send(patient.User.Email, title, body); err != nil {
		log.Printf("[NOTIFY] failed to email access notification to %s: %v", patient.User.Email, err)
	}
}

// NotifyPayment tells a patient an obligation was settled on their account.
func (n *Notifier) NotifyPayment(ctx context.Context, userID string, p *models.Payment) {
	title := "Payment received"
	message := fmt.Sprintf("Your payment for %02d/%d was registered. Thank you.", p.Month, p.Year)
	if _, err := n.store.CreateNotification(ctx, userID, models.NotificationPayment, title, message); err != nil {
		log.Printf("[NOTIFY] failed to store payment notification for user %s: %v", userID, err)
	}
}

func accessEmailBody(patientName, accessedBy string) string {
	return fmt.Sprintf(`<html><body>
<h2>Medical record access</h2>
<p>Hello %s,</p>
<p>Your medical record was accessed via your QR code by <strong>%s</strong>.</p>
<p>If you did not expect this access, please contact the clinic.</p>
</body></html>`, patientName, accessedBy)
}
