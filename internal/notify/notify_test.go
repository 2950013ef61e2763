package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odsie/odsie/internal/models"
	"github.com/odsie/odsie/internal/store"
)

type fakeNotificationStore struct {
	notifications map[string]*models.Notification
	nextID        int
}

func newFakeNotificationStore() *fakeNotificationStore {
	return &fakeNotificationStore{notifications: map[string]*models.Notification{}}
}

func (f *fakeNotificationStore) CreateNotification(_ context.Context, userID, kind, title, message string) (*models.Notification, error) {
	f.nextID++
	n := &models.Notification{
		ID:        "n-" + string(rune('0'+f.nextID)),
		UserID:    userID,
		Kind:      kind,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now(),
	}
	f.notifications[n.ID] = n
	return n, nil
}

func (f *fakeNotificationStore) GetNotificationsByUser(_ context.Context, userID string) ([]*models.Notification, error) {
	var out []*models.Notification
	for _, n := range f.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotificationStore) MarkNotificationRead(_ context.Context, id, userID string) error {
	n, ok := f.notifications[id]
	if !ok || n.UserID != userID {
		return store.ErrNotFound
	}
	n.Read = true
	return nil
}

func (f *fakeNotificationStore) MarkAllNotificationsRead(_ context.Context, userID string) error {
	for _, n := range f.notifications {
		if n.UserID == userID {
			n.Read = true
		}
	}
	return nil
}

type fakeEmailSender struct {
	sent []string
	err  error
}

func (f *fakeEmailSender) Send(to, subject, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to+":"+subject)
	return nil
}

func accessedPatient() *models.Patient {
	return &models.Patient{
		ID:     "patient-1",
		UserID: "user-1",
		User:   &models.User{ID: "user-1", Email: "ana@example.com", FirstNames: "Ana"},
	}
}

func TestNotifyAccessStoresAndEmails(t *testing.T) {
	s := newFakeNotificationStore()
	email := &fakeEmailSender{}
	n := New(s, email)

	n.NotifyAccess(context.Background(), accessedPatient(), "Dr. Vega")

	feed, err := s.GetNotificationsByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, models.NotificationAccess, feed[0].Kind)
	assert.Contains(t, feed[0].Message, "Dr. Vega")

	require.Len(t, email.sent, 1)
	assert.Contains(t, email.sent[0], "ana@example.com")
}

func TestNotifyAccessSurvivesEmailFailure(t *testing.T) {
	s := newFakeNotificationStore()
	email := &fakeEmailSender{err: assert.AnError}
	n := New(s, email)

	n.NotifyAccess(context.Background(), accessedPatient(), "")

	feed, err := s.GetNotificationsByUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, feed, 1, "in-app notification still recorded")
}

func TestNotifyAccessWithoutEmailConfigured(t *testing.T) {
	s := newFakeNotificationStore()
	n := New(s, nil)

	p := accessedPatient()
	p.User = nil
	n.NotifyAccess(context.Background(), p, "someone")

	feed, _ := s.GetNotificationsByUser(context.Background(), "user-1")
	assert.Len(t, feed, 1)
}

func TestMarkReadGuardsOwnership(t *testing.T) {
	s := newFakeNotificationStore()
	n := New(s, nil)

	created, err := n.Notify(context.Background(), "user-1", models.NotificationGeneral, "hi", "msg")
	require.NoError(t, err)

	err = n.MarkRead(context.Background(), created.ID, "someone-else")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, n.MarkRead(context.Background(), created.ID, "user-1"))
	feed, _ := n.ListByUser(context.Background(), "user-1")
	assert.True(t, feed[0].Read)
}
