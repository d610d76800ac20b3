package slot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/citizengate/citizengate/services/appointment-service/internal/catalog"
)

var (
	ErrOutsideWindow   = errors.New("slot outside the service's available window")
	ErrInPast          = errors.New("slot is in the past")
	ErrServiceMismatch = errors.New("availability does not belong to the selected service")
)

// Validate decides whether candidate is an admissible booking instant for the
// template. Admissible means: candidate falls on the template's weekday, its
// time-of-day (minute granularity) is inside [start, end), and it is not in
// the past. The slot duration is deliberately not checked here: any instant
// inside the window is bookable, duration only drives Enumerate.
//
// Comparisons happen in now's location, which is the service clock.
func Validate(candidate time.Time, tmpl catalog.Template, now time.Time) error {
	c := candidate.In(now.Location())

	day, err := parseWeekday(tmpl.DayOfWeek)
	if err != nil {
		return err
	}
	start, err := parseClock(tmpl.StartTime)
	if err != nil {
		return err
	}
	end, err := parseClock(tmpl.EndTime)
	if err != nil {
		return err
	}

	cDate := dateOf(c)
	nowDate := dateOf(now)
	if cDate.Before(nowDate) {
		return ErrInPast
	}

	if c.Weekday() != day {
		return ErrOutsideWindow
	}
	minute := c.Hour()*60 + c.Minute()
	if minute < start || minute >= end {
		return ErrOutsideWindow
	}

	// Same-day bookings must be strictly after the current wall clock.
	if cDate.Equal(nowDate) && !c.After(now) {
		return ErrInPast
	}
	return nil
}

// Enumerate returns the presentable slot start instants for the template on
// the given date: duration-aligned starts whose full slot fits in the window,
// skipping starts that are not after now. Returns nil when date is not the
// template's weekday.
func Enumerate(tmpl catalog.Template, date time.Time, now time.Time) ([]time.Time, error) {
	day, err := parseWeekday(tmpl.DayOfWeek)
	if err != nil {
		return nil, err
	}
	start, err := parseClock(tmpl.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := parseClock(tmpl.EndTime)
	if err != nil {
		return nil, err
	}
	if tmpl.DurationMinutes <= 0 || end <= start {
		return nil, nil
	}

	d := date.In(now.Location())
	if d.Weekday() != day {
		return nil, nil
	}

	var slots []time.Time
	dayStart := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, now.Location())
	for m := start; m+tmpl.DurationMinutes <= end; m += tmpl.DurationMinutes {
		t := dayStart.Add(time.Duration(m) * time.Minute)
		if !t.After(now) {
			continue
		}
		slots = append(slots, t)
	}
	return slots, nil
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func parseWeekday(raw string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "sunday":
		return time.Sunday, nil
	case "monday":
		return time.Monday, nil
	case "tuesday":
		return time.Tuesday, nil
	case "wednesday":
		return time.Wednesday, nil
	case "thursday":
		return time.Thursday, nil
	case "friday":
		return time.Friday, nil
	case "saturday":
		return time.Saturday, nil
	default:
		return 0, fmt.Errorf("invalid day of week %q", raw)
	}
}

// parseClock accepts HH:MM and HH:MM:SS (Postgres TIME text form) and returns
// the minute of day. Seconds are ignored: slot admissibility is
// minute-granular.
func parseClock(raw string) (int, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid time %q", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid time %q", raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid time %q", raw)
	}
	return hour*60 + minute, nil
}
