package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/citizengate/citizengate/libs/db"
	"github.com/citizengate/citizengate/libs/outbox"
	"github.com/citizengate/citizengate/services/scheduler-service/internal/reminder"
)

const topicReminderSent = "reminder.sent.v1"

// ReminderStore implements reminder.Store on the appointments table.
type ReminderStore struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewReminderStore(pool *db.Pool, outboxRepo *outbox.Repository) *ReminderStore {
	return &ReminderStore{pool: pool, outbox: outboxRepo}
}

// ProcessDue locks pending appointments inside [from, to) that have no
// reminder yet, lets fn send, then appends the reminder records and the
// analytics events in the same transaction. An appointment whose send failed
// gets nothing appended and stays eligible for the next scan.
func (s *ReminderStore) ProcessDue(ctx context.Context, from, to time.Time, limit int, fn func(ctx context.Context, due []reminder.DueAppointment) map[string]reminder.Reminder) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
		SELECT a.appointment_id::text, COALESCE(a.full_name, ''), COALESCE(a.email, ''),
			COALESCE(s.name, ''), a.appointment_time
		FROM appointments a
		LEFT JOIN government_services s ON s.service_id = a.service_id
		WHERE a.status = 'pending'
			AND a.appointment_time >= $1
			AND a.appointment_time < $2
			AND jsonb_array_length(a.reminders_sent) = 0
		ORDER BY a.appointment_time
		LIMIT $3
		FOR UPDATE OF a SKIP LOCKED
	`, from, to, limit)
	if err != nil {
		return err
	}

	var due []reminder.DueAppointment
	for rows.Next() {
		var d reminder.DueAppointment
		if err := rows.Scan(&d.ID, &d.FullName, &d.Email, &d.ServiceName, &d.AppointmentTime); err != nil {
			rows.Close()
			return err
		}
		due = append(due, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if len(due) == 0 {
		return tx.Commit(ctx)
	}

	sent := fn(ctx, due)
	for apptID, rem := range sent {
		raw, err := json.Marshal(rem)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE appointments
			SET reminders_sent = reminders_sent || $2::jsonb, updated_at = now()
			WHERE appointment_id = $1
		`, apptID, raw); err != nil {
			return err
		}

		payload, err := json.Marshal(map[string]string{
			"appointment_id": apptID,
			"reminder_id":    rem.ReminderID,
			"sent_at":        rem.SentAt.UTC().Format(time.RFC3339),
		})
		if err != nil {
			return err
		}
		if err := s.outbox.Insert(ctx, tx, outbox.Event{
			AggregateType: "appointment",
			AggregateID:   apptID,
			EventType:     topicReminderSent,
			Payload:       payload,
		}); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
