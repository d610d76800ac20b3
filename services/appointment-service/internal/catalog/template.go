package catalog

// Template is a recurring weekly availability window for one government
// service. Appointments snapshot the template id at booking time; later
// template edits do not rewrite existing appointments.
type Template struct {
	AvailabilityID  string `json:"availability_id"`
	ServiceID       string `json:"service_id"`
	DayOfWeek       string `json:"day_of_week"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	DurationMinutes int    `json:"duration_minutes"`
}
