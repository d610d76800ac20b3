// Package reminder scans for appointments inside the upcoming-24h window and
// sends each citizen exactly one reminder.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/citizengate/citizengate/services/scheduler-service/internal/notify"
)

// DueAppointment is the subset of an appointment the reminder needs.
type DueAppointment struct {
	ID              string
	FullName        string
	Email           string
	ServiceName     string
	AppointmentTime time.Time
}

// Reminder is the record appended to the appointment after a successful send.
type Reminder struct {
	ReminderID string    `json:"reminder_id"`
	SentAt     time.Time `json:"reminder_time"`
}

// Store locks due appointments, hands them to fn, and persists the reminders
// fn reports as sent within the same transaction that holds the locks. An
// appointment fn omits keeps an empty reminders list and is picked up again
// on a later tick.
type Store interface {
	ProcessDue(ctx context.Context, from, to time.Time, limit int, fn func(ctx context.Context, due []DueAppointment) map[string]Reminder) error
}

type Worker struct {
	store    Store
	notifier notify.Notifier
	logger   *slog.Logger

	interval    time.Duration
	window      time.Duration
	batchSize   int
	sendTimeout time.Duration
	concurrency int
	now         func() time.Time
}

type WorkerConfig struct {
	Interval    time.Duration
	Window      time.Duration
	BatchSize   int
	SendTimeout time.Duration
	Concurrency int
}

func NewWorker(store Store, notifier notify.Notifier, logger *slog.Logger, cfg WorkerConfig) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.Window <= 0 {
		cfg.Window = 24 * time.Hour
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	return &Worker{
		store:       store,
		notifier:    notifier,
		logger:      logger,
		interval:    cfg.Interval,
		window:      cfg.Window,
		batchSize:   cfg.BatchSize,
		sendTimeout: cfg.SendTimeout,
		concurrency: cfg.Concurrency,
		now:         time.Now,
	}
}

// Run processes ticks inline in the loop, so scans never overlap within one
// process; FOR UPDATE SKIP LOCKED keeps replicas from colliding.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.Scan(ctx); err != nil && ctx.Err() == nil {
			w.logger.Error("reminder scan failed", "err", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Scan runs one reminder pass over the [now, now+window) horizon.
func (w *Worker) Scan(ctx context.Context) error {
	from := w.now().UTC()
	return w.store.ProcessDue(ctx, from, from.Add(w.window), w.batchSize, w.sendBatch)
}

// sendBatch fans sends out over a bounded group and reports which
// appointments were actually delivered. Failures are logged and left for the
// next tick.
func (w *Worker) sendBatch(ctx context.Context, due []DueAppointment) map[string]Reminder {
	var (
		mu   sync.Mutex
		sent = make(map[string]Reminder, len(due))
	)

	var g errgroup.Group
	g.SetLimit(w.concurrency)
	for _, appt := range due {
		g.Go(func() error {
			sendCtx, cancel := context.WithTimeout(ctx, w.sendTimeout)
			defer cancel()

			subject, text, html := Render(appt)
			if err := w.notifier.Send(sendCtx, appt.Email, subject, text, html); err != nil {
				w.logger.Error("reminder send failed",
					"appointment_id", appt.ID, "recipient", appt.Email, "err", err)
				return nil
			}
			mu.Lock()
			sent[appt.ID] = Reminder{ReminderID: uuid.NewString(), SentAt: w.now().UTC()}
			mu.Unlock()
			w.logger.Info("reminder sent", "appointment_id", appt.ID)
			return nil
		})
	}
	_ = g.Wait()
	return sent
}

// Render builds the reminder message for one appointment.
func Render(appt DueAppointment) (subject, text, html string) {
	when := appt.AppointmentTime.Format("Monday, 2 January 2006 at 15:04")
	name := appt.FullName
	if name == "" {
		name = "Citizen"
	}
	service := appt.ServiceName
	if service == "" {
		service = "your government service appointment"
	}

	subject = "Appointment Reminder - CitizenGate"
	text = fmt.Sprintf(
		"Dear %s,\n\nThis is a reminder for %s on %s.\n\nPlease arrive 15 minutes early and bring the original copies of your submitted documents.\n\nCitizenGate",
		name, service, when)
	html = fmt.Sprintf(
		"<p>Dear %s,</p><p>This is a reminder for <strong>%s</strong> on <strong>%s</strong>.</p><p>Please arrive 15 minutes early and bring the original copies of your submitted documents.</p><p>CitizenGate</p>",
		name, service, when)
	return subject, text, html
}
