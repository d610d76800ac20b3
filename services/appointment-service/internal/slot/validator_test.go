package slot

import (
	"errors"
	"testing"
	"time"

	"github.com/citizengate/citizengate/services/appointment-service/internal/catalog"
)

var mondayMorning = catalog.Template{
	AvailabilityID:  "av-1",
	ServiceID:       "svc-1",
	DayOfWeek:       "Monday",
	StartTime:       "09:00",
	EndTime:         "12:00",
	DurationMinutes: 30,
}

// 2026-03-02 is a Monday.
var monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func TestValidate_InsideWindow(t *testing.T) {
	now := monday.Add(-24 * time.Hour) // Sunday
	cases := []time.Time{
		monday.Add(9 * time.Hour),                    // window start, inclusive
		monday.Add(10*time.Hour + 15*time.Minute),    // mid-window, off duration boundary
		monday.Add(11*time.Hour + 59*time.Minute),    // last admissible minute
		monday.AddDate(0, 0, 7).Add(9 * time.Hour),   // following Monday
		monday.AddDate(0, 0, 364).Add(9 * time.Hour), // far future Monday
	}
	for _, candidate := range cases {
		if err := Validate(candidate, mondayMorning, now); err != nil {
			t.Errorf("Validate(%s) = %v, want admissible", candidate, err)
		}
	}
}

func TestValidate_OutsideWindow(t *testing.T) {
	now := monday.Add(-24 * time.Hour)
	cases := []time.Time{
		monday.Add(8*time.Hour + 59*time.Minute), // before start
		monday.Add(12 * time.Hour),               // end is exclusive
		monday.Add(14 * time.Hour),               // afternoon
		monday.AddDate(0, 0, 1).Add(10 * time.Hour), // Tuesday, right time wrong day
	}
	for _, candidate := range cases {
		if err := Validate(candidate, mondayMorning, now); !errors.Is(err, ErrOutsideWindow) {
			t.Errorf("Validate(%s) = %v, want ErrOutsideWindow", candidate, err)
		}
	}
}

func TestValidate_SameDayMustBeInFuture(t *testing.T) {
	now := monday.Add(10*time.Hour + 30*time.Minute)

	if err := Validate(monday.Add(10*time.Hour), mondayMorning, now); !errors.Is(err, ErrInPast) {
		t.Fatalf("earlier same-day slot: got %v, want ErrInPast", err)
	}
	if err := Validate(now, mondayMorning, now); !errors.Is(err, ErrInPast) {
		t.Fatalf("slot equal to now must be rejected, got %v", err)
	}
	if err := Validate(monday.Add(11*time.Hour), mondayMorning, now); err != nil {
		t.Fatalf("later same-day slot: got %v, want admissible", err)
	}
}

func TestValidate_PastDate(t *testing.T) {
	now := monday.AddDate(0, 0, 9) // a Wednesday after the slot's Monday
	if err := Validate(monday.Add(10*time.Hour), mondayMorning, now); !errors.Is(err, ErrInPast) {
		t.Fatalf("past Monday: got %v, want ErrInPast", err)
	}
}

func TestValidate_BadTemplate(t *testing.T) {
	bad := mondayMorning
	bad.DayOfWeek = "Funday"
	if err := Validate(monday.Add(10*time.Hour), bad, monday); err == nil {
		t.Fatal("expected error for invalid weekday")
	}

	bad = mondayMorning
	bad.StartTime = "9am"
	if err := Validate(monday.Add(10*time.Hour), bad, monday); err == nil {
		t.Fatal("expected error for invalid clock time")
	}
}

func TestEnumerate(t *testing.T) {
	now := monday.Add(-24 * time.Hour)
	slots, err := Enumerate(mondayMorning, monday, now)
	if err != nil {
		t.Fatalf("Enumerate failed: %v", err)
	}
	// 09:00..11:30 at 30 minute steps.
	if len(slots) != 6 {
		t.Fatalf("expected 6 slots, got %d (%v)", len(slots), slots)
	}
	if !slots[0].Equal(monday.Add(9 * time.Hour)) {
		t.Fatalf("first slot should be 09:00, got %s", slots[0])
	}
	if !slots[5].Equal(monday.Add(11*time.Hour + 30*time.Minute)) {
		t.Fatalf("last slot should be 11:30, got %s", slots[5])
	}
}

func TestEnumerate_SkipsElapsedSlots(t *testing.T) {
	now := monday.Add(10*time.Hour + 31*time.Minute)
	slots, err := Enumerate(mondayMorning, monday, now)
	if err != nil {
		t.Fatalf("Enumerate failed: %v", err)
	}
	// 09:00, 09:30, 10:00 and 10:30 have started; 11:00 and 11:30 remain.
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d (%v)", len(slots), slots)
	}
	if !slots[0].Equal(monday.Add(11 * time.Hour)) {
		t.Fatalf("first remaining slot should be 11:00, got %s", slots[0])
	}
}

func TestEnumerate_WrongWeekday(t *testing.T) {
	tuesday := monday.AddDate(0, 0, 1)
	slots, err := Enumerate(mondayMorning, tuesday, monday)
	if err != nil {
		t.Fatalf("Enumerate failed: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected no slots on the wrong weekday, got %v", slots)
	}
}

func TestParseClock_PostgresTimeText(t *testing.T) {
	m, err := parseClock("09:30:00")
	if err != nil || m != 9*60+30 {
		t.Fatalf("parseClock(09:30:00) = %d, %v", m, err)
	}
	if _, err := parseClock("24:00"); err == nil {
		t.Fatal("expected 24:00 to be rejected")
	}
}
