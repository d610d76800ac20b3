// Package slotcheck validates availability windows before they enter the
// catalog, so the booking side never sees a template it cannot interpret.
package slotcheck

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var weekdays = map[string]bool{
	"sunday": true, "monday": true, "tuesday": true, "wednesday": true,
	"thursday": true, "friday": true, "saturday": true,
}

// Window checks a proposed recurring window: at least one valid weekday, no
// repeats, HH:MM times with start before end, and a positive duration that
// fits inside the window at least once.
func Window(days []string, startTime, endTime string, durationMinutes int) error {
	if len(days) == 0 {
		return errors.New("at least one day required")
	}
	seen := make(map[string]bool, len(days))
	for _, day := range days {
		normalized := strings.ToLower(strings.TrimSpace(day))
		if !weekdays[normalized] {
			return fmt.Errorf("invalid day of week %q", day)
		}
		if seen[normalized] {
			return fmt.Errorf("duplicate day %q", day)
		}
		seen[normalized] = true
	}

	start, err := clockMinutes(startTime)
	if err != nil {
		return fmt.Errorf("invalid start_time: %w", err)
	}
	end, err := clockMinutes(endTime)
	if err != nil {
		return fmt.Errorf("invalid end_time: %w", err)
	}
	if start >= end {
		return errors.New("start_time must be before end_time")
	}
	if durationMinutes <= 0 {
		return errors.New("duration_minutes must be positive")
	}
	if durationMinutes > end-start {
		return errors.New("duration_minutes exceeds the window")
	}
	return nil
}

func clockMinutes(raw string) (int, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("want HH:MM, got %q", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("want HH:MM, got %q", raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("want HH:MM, got %q", raw)
	}
	return hour*60 + minute, nil
}
