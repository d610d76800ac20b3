package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/citizengate/citizengate/services/appointment-service/internal/catalog"
	"github.com/citizengate/citizengate/services/appointment-service/internal/slot"
)

type slotsResponse struct {
	AvailabilityID  string   `json:"availability_id"`
	ServiceID       string   `json:"service_id"`
	Date            string   `json:"date"`
	DurationMinutes int      `json:"duration_minutes"`
	Slots           []string `json:"slots"`
}

// PublicSlots enumerates the bookable slot starts for one availability
// template on one date, with already-taken instants removed. Unauthenticated:
// citizens browse slots before booking.
func (h *AppointmentHandler) PublicSlots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	availabilityID := strings.TrimSpace(q.Get("availability_id"))
	rawDate := strings.TrimSpace(q.Get("date"))
	if availabilityID == "" || rawDate == "" {
		http.Error(w, "availability_id and date required", http.StatusBadRequest)
		return
	}
	date, err := time.Parse("2006-01-02", rawDate)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tmpl, err := h.lookupTemplate(ctx, availabilityID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			http.Error(w, "availability not found", http.StatusNotFound)
			return
		}
		http.Error(w, "directory service unavailable", http.StatusServiceUnavailable)
		return
	}

	// The service clock is UTC so enumerated instants line up with the
	// timestamptz values stored on bookings.
	starts, err := slot.Enumerate(tmpl, date, h.now().UTC())
	if err != nil {
		http.Error(w, "availability template is invalid", http.StatusUnprocessableEntity)
		return
	}

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	taken, err := h.repo.BookedInstants(ctx, availabilityID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		h.logger.Error("booked instants lookup failed", "err", err)
		http.Error(w, "failed to list slots", http.StatusInternalServerError)
		return
	}
	takenSet := make(map[int64]struct{}, len(taken))
	for _, t := range taken {
		takenSet[t.Unix()] = struct{}{}
	}

	free := make([]string, 0, len(starts))
	for _, s := range starts {
		if _, ok := takenSet[s.Unix()]; ok {
			continue
		}
		free = append(free, s.UTC().Format(time.RFC3339))
	}

	writeJSON(w, http.StatusOK, slotsResponse{
		AvailabilityID:  availabilityID,
		ServiceID:       tmpl.ServiceID,
		Date:            rawDate,
		DurationMinutes: tmpl.DurationMinutes,
		Slots:           free,
	})
}
