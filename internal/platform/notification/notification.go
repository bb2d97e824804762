// Package notification sends registration confirmations over email and SMS,
// records the in-app notices shown after a submission, and keeps a log of
// everything it sent for retry and inspection.
package notification

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// NotificationType is the delivery channel.
type NotificationType string

const (
	TypeEmail NotificationType = "email"
	TypeSMS   NotificationType = "sms"
	// TypeNotice is an in-app message shown to the person filling the form.
	TypeNotice NotificationType = "notice"
)

const (
	StatusPending   = "pending"
	StatusSent      = "sent"
	StatusFailed    = "failed"
	StatusDelivered = "delivered"
)

var ErrNotFound = errors.New("notification not found")

// Notification is one outbound message.
type Notification struct {
	ID           string            `json:"id"`
	Type         NotificationType  `json:"type"`
	Recipient    string            `json:"recipient"`
	Subject      string            `json:"subject,omitempty"`
	Body         string            `json:"body"`
	TemplateID   string            `json:"template_id,omitempty"`
	TemplateData map[string]string `json:"template_data,omitempty"`
	Status       string            `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
	SentAt       *time.Time        `json:"sent_at,omitempty"`
	Error        string            `json:"error,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// Template ids used by the registration flow.
const (
	TemplateRegistrationEmail  = "registration-confirmation"
	TemplateRegistrationSMS    = "registration-confirmation-sms"
	TemplateRegistrationNotice = "registration-success"
	TemplateSubmissionFailed   = "registration-failed"
)

type Template struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Subject string           `json:"subject"`
	Body    string           `json:"body"`
	Type    NotificationType `json:"type"`
}

// TemplateEngine renders {{key}} placeholders.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{templates: make(map[string]*Template)}
	for _, t := range []Template{
		{
			ID:      TemplateRegistrationEmail,
			Name:    "Registration Confirmation",
			Subject: "Welcome, {{first_name}}: your registration is complete",
			Body:    "Dear {{first_name}} {{last_name}}, your patient registration was received on {{date}}. Your patient ID is {{patient_id}}.",
			Type:    TypeEmail,
		},
		{
			ID:   TemplateRegistrationSMS,
			Name: "Registration Confirmation (SMS)",
			Body: "Hi {{first_name}}, your patient registration is complete. Patient ID: {{patient_id}}",
			Type: TypeSMS,
		},
		{
			ID:      TemplateRegistrationNotice,
			Name:    "Registration Successful",
			Subject: "Registration Successful!",
			Body:    "Welcome {{first_name}}! Your patient registration has been completed.",
			Type:    TypeNotice,
		},
		{
			ID:      TemplateSubmissionFailed,
			Name:    "Registration Failed",
			Subject: "Registration failed",
			Body:    "Registration failed. Please try again.",
			Type:    TypeNotice,
		},
	} {
		t := t
		e.templates[t.ID] = &t
	}
	return e
}

func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render fills the template. Placeholders missing from data are left as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (Template, error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return Template{}, fmt.Errorf("template %q not found", templateID)
	}

	out := *t
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		out.Subject = strings.ReplaceAll(out.Subject, placeholder, v)
		out.Body = strings.ReplaceAll(out.Body, placeholder, v)
	}
	return out, nil
}

// NotificationManager delivers notifications and keeps them in memory.
type NotificationManager struct {
	emailSender   EmailSender
	smsSender     SMSSender
	templates     *TemplateEngine
	now           func() time.Time
	mu            sync.RWMutex
	notifications map[string]*Notification
}

func NewNotificationManager(email EmailSender, sms SMSSender, tpl *TemplateEngine) *NotificationManager {
	return &NotificationManager{
		emailSender:   email,
		smsSender:     sms,
		templates:     tpl,
		now:           time.Now,
		notifications: make(map[string]*Notification),
	}
}

// Send delivers n and stores it. A failed delivery is stored with status
// failed and the send error is returned.
func (m *NotificationManager) Send(ctx context.Context, n *Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	n.CreatedAt = m.now().UTC()
	n.Status = StatusPending

	err := m.deliver(ctx, n)

	m.mu.Lock()
	m.notifications[n.ID] = n
	m.mu.Unlock()
	return err
}

// SendFromTemplate renders templateID and sends it on the template's channel.
func (m *NotificationManager) SendFromTemplate(ctx context.Context, templateID string, data map[string]string, recipient string) (*Notification, error) {
	t, err := m.templates.Render(templateID, data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}
	n := &Notification{
		Type:         t.Type,
		Recipient:    recipient,
		Subject:      t.Subject,
		Body:         t.Body,
		TemplateID:   templateID,
		TemplateData: data,
	}
	return n, m.Send(ctx, n)
}

func (m *NotificationManager) GetNotification(_ context.Context, id string) (*Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.notifications[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	cp := *n
	return &cp, nil
}

// List returns notifications newest first. An empty recipient matches all.
func (m *NotificationManager) List(_ context.Context, recipient string, limit int) []*Notification {
	m.mu.RLock()
	result := make([]*Notification, 0)
	for _, n := range m.notifications {
		if recipient == "" || n.Recipient == recipient {
			cp := *n
			result = append(result, &cp)
		}
	}
	m.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

// Retry re-sends a failed notification.
func (m *NotificationManager) Retry(ctx context.Context, id string) error {
	m.mu.Lock()
	n, ok := m.notifications[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if n.Status != StatusFailed {
		status := n.Status
		m.mu.Unlock()
		return fmt.Errorf("notification %q is not in failed status (current: %s)", id, status)
	}
	n.Status = StatusPending
	retry := *n
	m.mu.Unlock()

	err := m.deliver(ctx, &retry)

	m.mu.Lock()
	*n = retry
	m.mu.Unlock()
	return err
}

// Prune drops notifications created before cutoff and returns how many were
// removed. Pending notifications are kept so an in-flight retry is not lost.
func (m *NotificationManager) Prune(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, n := range m.notifications {
		if n.Status != StatusPending && n.CreatedAt.Before(cutoff) {
			delete(m.notifications, id)
			removed++
		}
	}
	return removed
}

// RunRetention prunes notifications older than retention every interval
// until ctx is done.
func (m *NotificationManager) RunRetention(ctx context.Context, retention, interval time.Duration, onPrune func(removed int)) {
	if retention <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Prune(m.now().Add(-retention)); n > 0 && onPrune != nil {
				onPrune(n)
			}
		}
	}
}

// NotificationStats counts notifications by status.
func (m *NotificationManager) NotificationStats(_ context.Context) map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := make(map[string]int)
	for _, n := range m.notifications {
		stats[n.Status]++
	}
	return stats
}

func (m *NotificationManager) deliver(ctx context.Context, n *Notification) error {
	var err error
	switch n.Type {
	case TypeEmail:
		err = m.emailSender.SendEmail(ctx, n.Recipient, n.Subject, n.Body)
	case TypeSMS:
		err = m.smsSender.SendSMS(ctx, n.Recipient, n.Body)
	case TypeNotice:
		// notices are read back by the client, nothing to transmit
	default:
		err = fmt.Errorf("unsupported notification type: %s", n.Type)
	}

	if err != nil {
		n.Status = StatusFailed
		n.Error = err.Error()
		return err
	}
	sentAt := m.now().UTC()
	n.SentAt = &sentAt
	n.Error = ""
	if n.Type == TypeNotice {
		n.Status = StatusDelivered
	} else {
		n.Status = StatusSent
	}
	return nil
}
