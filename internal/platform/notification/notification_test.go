package notification

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type mockSender struct {
	mu       sync.Mutex
	calls    []Message
	failures int // fail this many calls before succeeding
}

func (m *mockSender) SendEmail(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, msg)
	if m.failures > 0 {
		m.failures--
		return errors.New("connection refused")
	}
	return nil
}

func (m *mockSender) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func newTestManager(s EmailSender) *Manager {
	m := NewManager(s, nil)
	m.backoff = time.Millisecond
	return m
}

func TestTemplateEngine_RegisterAndRender(t *testing.T) {
	eng := NewTemplateEngine()
	eng.RegisterTemplate(Template{
		ID:      "test-tpl",
		Subject: "Hello {{name}}",
		Body:    "Dear {{name}}, your code is {{code}}.",
	})

	subject, body, err := eng.Render("test-tpl", map[string]string{"name": "Asha", "code": "1234"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if subject != "Hello Asha" {
		t.Errorf("subject = %q", subject)
	}
	if body != "Dear Asha, your code is 1234." {
		t.Errorf("body = %q", body)
	}
}

func TestTemplateEngine_BuiltIns(t *testing.T) {
	eng := NewTemplateEngine()
	for _, id := range []string{TemplateWelcome, TemplateAppointmentBooked, TemplateAppointmentCancelled, TemplateVisitSummary} {
		if _, _, err := eng.Render(id, nil); err != nil {
			t.Errorf("built-in %s: %v", id, err)
		}
	}

	subject, body, _ := eng.Render(TemplateAppointmentBooked, map[string]string{
		"patient_name": "Parth Joshi",
		"doctor_name":  "Rajesh Sharma",
		"department":   "Cardiology",
		"date":         "2024-01-10",
		"time":         "10:00",
	})
	if subject != "Appointment confirmed with Dr. Rajesh Sharma" {
		t.Errorf("subject = %q", subject)
	}
	if !strings.Contains(body, "2024-01-10 at 10:00") {
		t.Errorf("body = %q", body)
	}
}

func TestTemplateEngine_UnknownTemplate(t *testing.T) {
	if _, _, err := NewTemplateEngine().Render("missing", nil); err == nil {
		t.Error("expected error for unknown template")
	}
}

func TestManager_SendFromTemplate(t *testing.T) {
	s := &mockSender{}
	m := newTestManager(s)

	n, err := m.SendFromTemplate(context.Background(), TemplateVisitSummary,
		map[string]string{"patient_name": "Parth"}, "parth@example.com",
		Attachment{Name: "summary.pdf", Data: []byte("%PDF")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Status != StatusSent || n.Attempts != 1 || n.SentAt == nil {
		t.Errorf("unexpected notification: %+v", n)
	}
	if len(s.calls) != 1 || len(s.calls[0].Attachments) != 1 {
		t.Fatalf("expected one call with attachment, got %+v", s.calls)
	}
	if s.calls[0].To != "parth@example.com" {
		t.Errorf("unexpected recipient %s", s.calls[0].To)
	}
}

func TestManager_EmptyRecipientIsNoop(t *testing.T) {
	s := &mockSender{}
	n, err := newTestManager(s).SendFromTemplate(context.Background(), TemplateWelcome, nil, "")
	if err != nil || n != nil {
		t.Errorf("expected no-op, got %v %v", n, err)
	}
	if s.count() != 0 {
		t.Error("expected sender not to be called")
	}
}

func TestManager_RetriesThenSucceeds(t *testing.T) {
	s := &mockSender{failures: 2}
	n, err := newTestManager(s).SendFromTemplate(context.Background(), TemplateWelcome, nil, "a@b.c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Attempts != 3 || n.Status != StatusSent {
		t.Errorf("unexpected notification: %+v", n)
	}
}

func TestManager_GivesUp(t *testing.T) {
	s := &mockSender{failures: 10}
	m := newTestManager(s)
	n, err := m.SendFromTemplate(context.Background(), TemplateWelcome, nil, "a@b.c")
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if n.Status != StatusFailed || n.Error == "" || s.count() != 3 {
		t.Errorf("unexpected result: %+v, calls=%d", n, s.count())
	}
	if m.Stats()[StatusFailed] != 1 {
		t.Errorf("expected 1 failed in stats, got %v", m.Stats())
	}
}

func TestManager_RecentNewestFirst(t *testing.T) {
	m := newTestManager(&mockSender{})
	for _, to := range []string{"a@x", "b@x", "c@x"} {
		_, _ = m.SendFromTemplate(context.Background(), TemplateWelcome, nil, to)
	}
	recent := m.Recent(2)
	if len(recent) != 2 || recent[0].Recipient != "c@x" || recent[1].Recipient != "b@x" {
		t.Errorf("unexpected recent list: %+v", recent)
	}
	if len(m.Recent(0)) != 3 {
		t.Errorf("expected all 3 with limit 0")
	}
}

func TestBuildMessage(t *testing.T) {
	m := buildMessage("no-reply@healflow.local", Message{
		To:          "p@example.com",
		Subject:     "Visit summary",
		Body:        "attached",
		Attachments: []Attachment{{Name: "summary.pdf", Data: []byte("%PDF-1.3")}},
	})
	if got := m.GetHeader("From"); len(got) != 1 || got[0] != "no-reply@healflow.local" {
		t.Errorf("unexpected From: %v", got)
	}
	if got := m.GetHeader("To"); len(got) != 1 || got[0] != "p@example.com" {
		t.Errorf("unexpected To: %v", got)
	}

	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		t.Fatalf("write message: %v", err)
	}
	if !strings.Contains(buf.String(), "summary.pdf") {
		t.Error("expected attachment name in message")
	}
}

func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSender(zerolog.New(&buf))
	if err := s.SendEmail(context.Background(), Message{To: "x@y", Subject: "hi"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), `"to":"x@y"`) {
		t.Errorf("expected recipient in log, got %s", buf.String())
	}
}
