// Package notification renders and delivers patient and doctor emails for
// appointment events.
package notification

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	TemplateWelcome              = "welcome"
	TemplateAppointmentBooked    = "appointment-booked"
	TemplateAppointmentCancelled = "appointment-cancelled"
	TemplateVisitSummary         = "visit-summary"
)

const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// Attachment is a file sent along with an email.
type Attachment struct {
	Name string
	Data []byte
}

// Message is one outbound email.
type Message struct {
	To          string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Notification is the delivery record of a Message.
type Notification struct {
	ID         string     `json:"id"`
	Recipient  string     `json:"recipient"`
	Subject    string     `json:"subject"`
	TemplateID string     `json:"template_id,omitempty"`
	Status     string     `json:"status"`
	Attempts   int        `json:"attempts"`
	CreatedAt  time.Time  `json:"created_at"`
	SentAt     *time.Time `json:"sent_at,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// EmailSender delivers a single message.
type EmailSender interface {
	SendEmail(ctx context.Context, msg Message) error
}

// Template defines a reusable email with {{key}} placeholders.
type Template struct {
	ID      string
	Subject string
	Body    string
}

type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in templates pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{
		templates: make(map[string]*Template),
	}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:      TemplateWelcome,
			Subject: "Welcome to HealFlow, {{name}}",
			Body:    "Dear {{name}}, your patient account {{username}} has been created. You can now book appointments online.",
		},
		{
			ID:      TemplateAppointmentBooked,
			Subject: "Appointment confirmed with Dr. {{doctor_name}}",
			Body:    "Dear {{patient_name}}, your appointment with Dr. {{doctor_name}} ({{department}}) is booked for {{date}} at {{time}}.",
		},
		{
			ID:      TemplateAppointmentCancelled,
			Subject: "Appointment on {{date}} cancelled",
			Body:    "Dear {{patient_name}}, your appointment with Dr. {{doctor_name}} on {{date}} at {{time}} has been cancelled by the {{cancelled_by}}.",
		},
		{
			ID:      TemplateVisitSummary,
			Subject: "Visit summary for {{date}}",
			Body:    "Dear {{patient_name}}, your visit with Dr. {{doctor_name}} on {{date}} is complete. Your visit summary is attached.",
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.ID] = &t
	}
}

// RegisterTemplate adds or replaces a template in the engine.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render performs {{key}} replacement. Keys absent from data are left as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (subject, body string, err error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("template %q not found", templateID)
	}

	subject = t.Subject
	body = t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return subject, body, nil
}

// maxHistory bounds the in-memory delivery log.
const maxHistory = 500

// Manager renders templates, sends with retries and keeps a short
// delivery history for the admin dashboard.
type Manager struct {
	sender      EmailSender
	templates   *TemplateEngine
	maxAttempts int
	backoff     time.Duration

	mu      sync.RWMutex
	history []*Notification
}

func NewManager(sender EmailSender, tpl *TemplateEngine) *Manager {
	if tpl == nil {
		tpl = NewTemplateEngine()
	}
	return &Manager{
		sender:      sender,
		templates:   tpl,
		maxAttempts: 3,
		backoff:     500 * time.Millisecond,
	}
}

// SendFromTemplate renders templateID with data and delivers it to recipient.
// An empty recipient is a no-op.
func (m *Manager) SendFromTemplate(ctx context.Context, templateID string, data map[string]string, recipient string, attachments ...Attachment) (*Notification, error) {
	if recipient == "" {
		return nil, nil
	}
	subject, body, err := m.templates.Render(templateID, data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	n := &Notification{
		ID:         uuid.New().String(),
		Recipient:  recipient,
		Subject:    subject,
		TemplateID: templateID,
		CreatedAt:  time.Now().UTC(),
	}
	msg := Message{To: recipient, Subject: subject, Body: body, Attachments: attachments}

	sendErr := m.deliver(ctx, n, msg)
	m.record(n)
	return n, sendErr
}

func (m *Manager) deliver(ctx context.Context, n *Notification, msg Message) error {
	var err error
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		n.Attempts = attempt
		if err = m.sender.SendEmail(ctx, msg); err == nil {
			sentAt := time.Now().UTC()
			n.SentAt = &sentAt
			n.Status = StatusSent
			n.Error = ""
			return nil
		}
		if attempt == m.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			attempt = m.maxAttempts
		case <-time.After(m.backoff * time.Duration(attempt)):
		}
	}
	n.Status = StatusFailed
	n.Error = err.Error()
	return err
}

func (m *Manager) record(n *Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, n)
	if len(m.history) > maxHistory {
		m.history = m.history[len(m.history)-maxHistory:]
	}
}

// Recent returns up to limit notifications, newest first.
func (m *Manager) Recent(limit int) []*Notification {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || limit > len(m.history) {
		limit = len(m.history)
	}
	out := make([]*Notification, 0, limit)
	for i := len(m.history) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.history[i])
	}
	return out
}

// Stats returns counts of notifications grouped by status.
func (m *Manager) Stats() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := map[string]int{StatusSent: 0, StatusFailed: 0}
	for _, n := range m.history {
		stats[n.Status]++
	}
	return stats
}
