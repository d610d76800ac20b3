// Package metrics maintains the per-day, per-service counters behind the
// organization dashboard.
package metrics

import (
	"context"
	"time"

	"github.com/citizengate/citizengate/libs/db"
)

const (
	MetricBooked       = "booked"
	MetricConfirmed    = "confirmed"
	MetricCompleted    = "completed"
	MetricCancelled    = "cancelled"
	MetricReminderSent = "reminder_sent"
)

type Store struct {
	pool *db.Pool
}

func NewStore(pool *db.Pool) *Store {
	return &Store{pool: pool}
}

// Bump adds delta to one counter for the day the event belongs to.
func (s *Store) Bump(ctx context.Context, day time.Time, serviceID, metric string, delta int) error {
	if serviceID == "" {
		serviceID = "unknown"
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO analytics_daily (day, service_id, metric, count)
		VALUES ($1::date, $2, $3, $4)
		ON CONFLICT (day, service_id, metric)
		DO UPDATE SET count = analytics_daily.count + EXCLUDED.count
	`, day.UTC(), serviceID, metric, delta)
	return err
}

// DayCount is one counter row of the summary.
type DayCount struct {
	Day       string `json:"day"`
	ServiceID string `json:"service_id"`
	Metric    string `json:"metric"`
	Count     int64  `json:"count"`
}

// Summary returns all counters inside [from, to], newest day first,
// optionally filtered by service.
func (s *Store) Summary(ctx context.Context, from, to time.Time, serviceID string) ([]DayCount, error) {
	query := `
		SELECT day::text, service_id, metric, count
		FROM analytics_daily
		WHERE day >= $1::date AND day <= $2::date`
	args := []any{from.UTC(), to.UTC()}
	if serviceID != "" {
		args = append(args, serviceID)
		query += ` AND service_id = $3`
	}
	query += ` ORDER BY day DESC, service_id, metric`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DayCount
	for rows.Next() {
		var c DayCount
		if err := rows.Scan(&c.Day, &c.ServiceID, &c.Metric, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
