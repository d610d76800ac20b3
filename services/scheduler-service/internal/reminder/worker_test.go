package reminder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeStore struct {
	due  []DueAppointment
	sent map[string]Reminder
	from time.Time
	to   time.Time
}

func (s *fakeStore) ProcessDue(ctx context.Context, from, to time.Time, _ int, fn func(context.Context, []DueAppointment) map[string]Reminder) error {
	s.from, s.to = from, to
	s.sent = fn(ctx, s.due)
	return nil
}

type fakeNotifier struct {
	mu      sync.Mutex
	sentTo  []string
	failFor map[string]bool
}

func (n *fakeNotifier) Send(_ context.Context, recipient, _, _, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failFor[recipient] {
		return errors.New("smtp down")
	}
	n.sentTo = append(n.sentTo, recipient)
	return nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScanRecordsOnlySuccessfulSends(t *testing.T) {
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	store := &fakeStore{due: []DueAppointment{
		{ID: "a1", FullName: "Amara Silva", Email: "a@example.org", AppointmentTime: at},
		{ID: "a2", FullName: "Bandu Perera", Email: "b@example.org", AppointmentTime: at},
	}}
	notifier := &fakeNotifier{failFor: map[string]bool{"b@example.org": true}}

	w := NewWorker(store, notifier, discard(), WorkerConfig{})
	if err := w.Scan(context.Background()); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if _, ok := store.sent["a1"]; !ok {
		t.Error("expected a reminder recorded for a1")
	}
	if _, ok := store.sent["a2"]; ok {
		t.Error("failed send for a2 must not record a reminder")
	}
	if rem := store.sent["a1"]; rem.ReminderID == "" || rem.SentAt.IsZero() {
		t.Errorf("recorded reminder incomplete: %+v", rem)
	}
}

func TestScanWindowIsTwentyFourHours(t *testing.T) {
	store := &fakeStore{}
	w := NewWorker(store, &fakeNotifier{}, discard(), WorkerConfig{})
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	if err := w.Scan(context.Background()); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !store.from.Equal(now) {
		t.Errorf("window start = %v, want %v", store.from, now)
	}
	if want := now.Add(24 * time.Hour); !store.to.Equal(want) {
		t.Errorf("window end = %v, want %v", store.to, want)
	}
}

func TestScanEmptyBatch(t *testing.T) {
	store := &fakeStore{}
	w := NewWorker(store, &fakeNotifier{}, discard(), WorkerConfig{})
	if err := w.Scan(context.Background()); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(store.sent) != 0 {
		t.Errorf("expected no reminders, got %d", len(store.sent))
	}
}

func TestRender(t *testing.T) {
	subject, text, html := Render(DueAppointment{
		FullName:        "Amara Silva",
		ServiceName:     "Passport Renewal",
		AppointmentTime: time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC),
	})
	if !strings.Contains(subject, "Reminder") {
		t.Errorf("subject = %q", subject)
	}
	for _, want := range []string{"Amara Silva", "Passport Renewal", "Monday, 2 March 2026 at 10:30"} {
		if !strings.Contains(text, want) {
			t.Errorf("text missing %q:\n%s", want, text)
		}
		if !strings.Contains(html, want) {
			t.Errorf("html missing %q:\n%s", want, html)
		}
	}
}

func TestRenderFallbacks(t *testing.T) {
	_, text, _ := Render(DueAppointment{AppointmentTime: time.Now()})
	if !strings.Contains(text, "Dear Citizen") {
		t.Errorf("expected generic salutation, got:\n%s", text)
	}
}
