// Package model holds the directory catalog: departments, the government
// services they offer, recurring availability templates and the documents a
// service requires.
package model

import "time"

type Department struct {
	DepartmentID int    `json:"department_id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Address      string `json:"address,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
}

type Service struct {
	ServiceID    string `json:"service_id"`
	DepartmentID int    `json:"department_id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Category     string `json:"category,omitempty"`
	Location     string `json:"location,omitempty"`
}

// Availability is one weekly recurring booking window. Times are wall-clock
// HH:MM strings; the appointment side derives concrete instants from them.
type Availability struct {
	AvailabilityID  string `json:"availability_id"`
	ServiceID       string `json:"service_id"`
	DayOfWeek       string `json:"day_of_week"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	DurationMinutes int    `json:"duration_minutes"`
}

type RequiredDocument struct {
	DocumentID  string    `json:"document_id"`
	ServiceID   string    `json:"service_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsMandatory bool      `json:"is_mandatory"`
	CreatedAt   time.Time `json:"created_at"`
}
