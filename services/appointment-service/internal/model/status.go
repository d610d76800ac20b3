package model

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidStatus     = errors.New("invalid appointment status")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Status is the appointment lifecycle state. Drafts are pre-booking
// placeholders; a booked appointment moves pending -> confirmed -> completed,
// with cancellation possible from pending or confirmed.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ParseStatus accepts only the statuses reachable through the public
// update-status operation. Drafts are created, never assigned.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return Status(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
}

func (s Status) CanTransition(to Status) bool {
	switch s {
	case StatusDraft:
		return to == StatusPending
	case StatusPending:
		return to == StatusConfirmed || to == StatusCancelled
	case StatusConfirmed:
		return to == StatusCompleted || to == StatusCancelled
	case StatusCompleted, StatusCancelled:
		return false
	default:
		return false
	}
}

// Booked reports whether the appointment holds its slot against concurrent
// bookings. Drafts and cancellations do not.
func (s Status) Booked() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusCompleted
}
