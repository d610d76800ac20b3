package model

import "time"

// Appointment is one citizen reservation, from anonymous draft through a
// confirmed time-bound slot. Ownership is an explicit column checked before
// every mutation, never inferred from free text.
type Appointment struct {
	ID             string
	OwnerID        string
	ServiceID      string
	AvailabilityID string

	FullName    string
	NIC         string
	PhoneNumber string
	Address     string
	BirthDate   *time.Time
	Gender      string
	Email       string
	Username    string

	// Nil while the appointment is a draft; required non-nil afterwards.
	AppointmentTime *time.Time
	Status          Status
	Notes           string

	Documents []Document
	Reminders []Reminder

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a *Appointment) IsOwnedBy(userID string) bool {
	return userID != "" && a.OwnerID == userID
}

// Reminder records a sent notification. Its presence on the appointment is
// the idempotency marker that prevents re-sending.
type Reminder struct {
	ReminderID string    `json:"reminder_id"`
	SentAt     time.Time `json:"reminder_time"`
}
