// Package events defines the appointment domain events emitted through the
// transactional outbox.
package events

import (
	"encoding/json"
	"time"

	"github.com/citizengate/citizengate/libs/outbox"
)

const (
	TopicAppointmentBooked        = "appointment.booked.v1"
	TopicAppointmentStatusChanged = "appointment.status_changed.v1"
)

type AppointmentBooked struct {
	AppointmentID   string    `json:"appointment_id"`
	OwnerID         string    `json:"owner_id"`
	ServiceID       string    `json:"service_id"`
	AvailabilityID  string    `json:"availability_id"`
	AppointmentTime time.Time `json:"appointment_time"`
	BookedAt        time.Time `json:"booked_at"`
}

func NewAppointmentBooked(p AppointmentBooked) (outbox.Event, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return outbox.Event{}, err
	}
	return outbox.Event{
		AggregateType: "appointment",
		AggregateID:   p.AppointmentID,
		EventType:     TopicAppointmentBooked,
		Payload:       payload,
	}, nil
}

type AppointmentStatusChanged struct {
	AppointmentID string    `json:"appointment_id"`
	ServiceID     string    `json:"service_id"`
	From          string    `json:"from"`
	To            string    `json:"to"`
	ChangedAt     time.Time `json:"changed_at"`
}

func NewAppointmentStatusChanged(p AppointmentStatusChanged) (outbox.Event, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return outbox.Event{}, err
	}
	return outbox.Event{
		AggregateType: "appointment",
		AggregateID:   p.AppointmentID,
		EventType:     TopicAppointmentStatusChanged,
		Payload:       payload,
	}, nil
}
