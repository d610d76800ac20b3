package model

import (
	"errors"
	"testing"
)

func TestParseStatus(t *testing.T) {
	for _, raw := range []string{"pending", "confirmed", "completed", "cancelled"} {
		if _, err := ParseStatus(raw); err != nil {
			t.Fatalf("ParseStatus(%q) failed: %v", raw, err)
		}
	}
	for _, raw := range []string{"draft", "booked", "", "PENDING "} {
		if _, err := ParseStatus(raw); !errors.Is(err, ErrInvalidStatus) {
			t.Fatalf("ParseStatus(%q) = %v, want ErrInvalidStatus", raw, err)
		}
	}
}

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from Status
		to   Status
		ok   bool
	}{
		{StatusDraft, StatusPending, true},
		{StatusDraft, StatusConfirmed, false},
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusPending, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.ok {
			t.Errorf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}

func TestStatusBooked(t *testing.T) {
	if StatusDraft.Booked() || StatusCancelled.Booked() {
		t.Fatal("draft and cancelled must not hold a slot")
	}
	for _, s := range []Status{StatusPending, StatusConfirmed, StatusCompleted} {
		if !s.Booked() {
			t.Fatalf("%s should hold its slot", s)
		}
	}
}
