package registration

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehr/intake/internal/platform/notification"
)

type captureSender struct {
	mu     sync.Mutex
	emails []string
	sms    []string
	fail   error
}

func (s *captureSender) SendEmail(_ context.Context, to, _, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emails = append(s.emails, to)
	return s.fail
}

func (s *captureSender) SendSMS(_ context.Context, to, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sms = append(s.sms, to)
	return s.fail
}

func newTestNotifier(sender *captureSender) (*NotificationNotifier, *notification.NotificationManager, uuid.UUID) {
	mgr := notification.NewNotificationManager(sender, sender, notification.NewTemplateEngine())
	session := uuid.New()
	return NewNotificationNotifier(mgr, zerolog.Nop()).ForSession(session), mgr, session
}

func TestNotificationNotifier_Submitted(t *testing.T) {
	sender := &captureSender{}
	n, mgr, session := newTestNotifier(sender)

	reg := completeDraft()
	reg.CommunicationPreferences.SMS = true
	rec := &Record{ID: uuid.New(), CreatedAt: testNow}
	n.RegistrationSubmitted(context.Background(), reg, rec)

	assert.Equal(t, []string{"jane.doe@example.com"}, sender.emails)
	assert.Equal(t, []string{"(555) 123-4567"}, sender.sms)

	notices := mgr.List(context.Background(), session.String(), 0)
	require.Len(t, notices, 1)
	assert.Equal(t, notification.TypeNotice, notices[0].Type)
	assert.Equal(t, MsgSubmitted, notices[0].Subject)
	assert.Contains(t, notices[0].Body, "Jane")
}

func TestNotificationNotifier_RespectsPreferences(t *testing.T) {
	sender := &captureSender{}
	n, _, _ := newTestNotifier(sender)

	reg := completeDraft()
	reg.CommunicationPreferences = CommunicationPreferences{}
	n.RegistrationSubmitted(context.Background(), reg, &Record{ID: uuid.New(), CreatedAt: testNow})

	assert.Empty(t, sender.emails)
	assert.Empty(t, sender.sms)
}

func TestNotificationNotifier_DeliveryFailureIsLogged(t *testing.T) {
	sender := &captureSender{fail: errors.New("smtp down")}
	n, mgr, _ := newTestNotifier(sender)

	n.RegistrationSubmitted(context.Background(), completeDraft(), &Record{ID: uuid.New(), CreatedAt: testNow})

	stats := mgr.NotificationStats(context.Background())
	assert.Equal(t, 1, stats[notification.StatusFailed])
	assert.Equal(t, 1, stats[notification.StatusDelivered])
}

func TestNotificationNotifier_Failed(t *testing.T) {
	sender := &captureSender{}
	n, mgr, session := newTestNotifier(sender)

	n.RegistrationFailed(context.Background(), completeDraft(), errors.New("timeout"))

	notices := mgr.List(context.Background(), session.String(), 0)
	require.Len(t, notices, 1)
	assert.Equal(t, MsgSubmitFailed, notices[0].Body)
	assert.Empty(t, sender.emails)
}
