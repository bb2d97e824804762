package registration

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ehr/intake/internal/platform/notification"
)

// Messages shown to the user after a submission attempt.
const (
	MsgSubmitted    = "Registration Successful!"
	MsgSubmitFailed = "Registration failed. Please try again."
)

// NotificationNotifier reports submissions through the notification
// manager: an in-app notice addressed to the session, plus email and SMS
// confirmations when the patient opted in to those channels.
type NotificationNotifier struct {
	manager *notification.NotificationManager
	logger  zerolog.Logger
	session uuid.UUID
}

func NewNotificationNotifier(mgr *notification.NotificationManager, logger zerolog.Logger) *NotificationNotifier {
	return &NotificationNotifier{manager: mgr, logger: logger}
}

// ForSession returns a notifier whose notices are addressed to session id.
func (n *NotificationNotifier) ForSession(id uuid.UUID) *NotificationNotifier {
	cp := *n
	cp.session = id
	return &cp
}

func (n *NotificationNotifier) RegistrationSubmitted(ctx context.Context, reg PatientRegistration, rec *Record) {
	data := map[string]string{
		"first_name": reg.FirstName,
		"last_name":  reg.LastName,
		"patient_id": rec.ID.String(),
		"date":       rec.CreatedAt.Format(DateLayout),
	}

	n.send(ctx, notification.TemplateRegistrationNotice, data, n.session.String())
	if reg.CommunicationPreferences.Email && reg.Email != "" {
		n.send(ctx, notification.TemplateRegistrationEmail, data, reg.Email)
	}
	if reg.CommunicationPreferences.SMS && reg.Phone != "" {
		n.send(ctx, notification.TemplateRegistrationSMS, data, reg.Phone)
	}
}

func (n *NotificationNotifier) RegistrationFailed(ctx context.Context, _ PatientRegistration, err error) {
	n.logger.Error().Err(err).Str("session_id", n.session.String()).Msg("registration submission failed")
	n.send(ctx, notification.TemplateSubmissionFailed, nil, n.session.String())
}

// send never fails the caller; the notification log keeps failed
// deliveries for retry.
func (n *NotificationNotifier) send(ctx context.Context, templateID string, data map[string]string, to string) {
	// the submit deadline may already be spent; confirmations still go out
	ctx = context.WithoutCancel(ctx)
	if _, err := n.manager.SendFromTemplate(ctx, templateID, data, to); err != nil {
		n.logger.Warn().Err(err).Str("template", templateID).Msg("notification delivery failed")
	}
}
