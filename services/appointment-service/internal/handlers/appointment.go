package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/citizengate/citizengate/services/appointment-service/internal/catalog"
	"github.com/citizengate/citizengate/services/appointment-service/internal/events"
	"github.com/citizengate/citizengate/services/appointment-service/internal/model"
	"github.com/citizengate/citizengate/services/appointment-service/internal/slot"
	"github.com/citizengate/citizengate/services/appointment-service/internal/storage"
)

func (h *AppointmentHandler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	id := callerIdentity(r)
	if id.UserID == "" {
		forbidden(w)
		return
	}

	var req struct {
		Username string `json:"username"`
	}
	// The body is optional for drafts.
	_ = json.NewDecoder(r.Body).Decode(&req)

	appt, err := h.repo.CreateDraft(r.Context(), id.UserID, strings.TrimSpace(req.Username))
	if err != nil {
		h.logger.Error("create draft failed", "err", err)
		http.Error(w, "failed to create draft", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, toResponse(appt))
}

type attachServiceRequest struct {
	ServiceID       string `json:"service_id"`
	AvailabilityID  string `json:"availability_id"`
	AppointmentTime string `json:"appointment_time"`
}

func (h *AppointmentHandler) AttachService(w http.ResponseWriter, r *http.Request) {
	id := callerIdentity(r)
	apptID := r.PathValue("id")

	var req attachServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	req.AvailabilityID = strings.TrimSpace(req.AvailabilityID)
	if req.ServiceID == "" || req.AvailabilityID == "" || req.AppointmentTime == "" {
		http.Error(w, "service_id, availability_id and appointment_time required", http.StatusBadRequest)
		return
	}
	at, err := time.Parse(time.RFC3339, req.AppointmentTime)
	if err != nil {
		http.Error(w, "invalid appointment_time", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := h.repo.GetForUpdate(ctx, tx, apptID)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	if !appt.IsOwnedBy(id.UserID) {
		forbidden(w)
		return
	}
	if appt.Status != model.StatusDraft {
		http.Error(w, "appointment is no longer a draft", http.StatusUnprocessableEntity)
		return
	}

	tmpl, err := h.lookupTemplate(ctx, req.AvailabilityID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			http.Error(w, "availability not found", http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, "directory service unavailable", http.StatusServiceUnavailable)
		return
	}
	if tmpl.ServiceID != req.ServiceID {
		writeSlotError(w, slot.ErrServiceMismatch)
		return
	}
	if err := slot.Validate(at, tmpl, h.now().UTC()); err != nil {
		writeSlotError(w, err)
		return
	}

	if err := h.repo.AttachService(ctx, tx, apptID, req.ServiceID, req.AvailabilityID, at); err != nil {
		http.Error(w, "failed to attach service", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	updated, err := h.repo.Get(ctx, apptID)
	if err != nil {
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(updated))
}

type completeDraftRequest struct {
	FullName        string `json:"full_name"`
	NIC             string `json:"nic"`
	PhoneNumber     string `json:"phone_number"`
	Address         string `json:"address"`
	BirthDate       string `json:"birth_date"`
	Gender          string `json:"gender"`
	Email           string `json:"email"`
	AppointmentTime string `json:"appointment_time"`
	Notes           string `json:"notes"`
}

func (h *AppointmentHandler) CompleteDraft(w http.ResponseWriter, r *http.Request) {
	id := callerIdentity(r)
	apptID := r.PathValue("id")

	var req completeDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.FullName = strings.TrimSpace(req.FullName)
	req.NIC = strings.TrimSpace(req.NIC)
	if req.FullName == "" || req.NIC == "" || req.PhoneNumber == "" || req.Email == "" {
		http.Error(w, "full_name, nic, phone_number and email required", http.StatusBadRequest)
		return
	}
	birthDate, err := time.Parse("2006-01-02", req.BirthDate)
	if err != nil {
		http.Error(w, "invalid birth_date", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := h.repo.GetForUpdate(ctx, tx, apptID)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	if !appt.IsOwnedBy(id.UserID) {
		forbidden(w)
		return
	}
	if appt.Status != model.StatusDraft {
		http.Error(w, "appointment is no longer a draft", http.StatusUnprocessableEntity)
		return
	}
	if appt.AvailabilityID == "" {
		http.Error(w, "no service attached to this draft", http.StatusUnprocessableEntity)
		return
	}

	// Completion may re-supply the instant; otherwise the one chosen at
	// attach time stands. Either way it is re-validated against the template
	// because time has passed since the draft was assembled.
	at := appt.AppointmentTime
	if req.AppointmentTime != "" {
		parsed, err := time.Parse(time.RFC3339, req.AppointmentTime)
		if err != nil {
			http.Error(w, "invalid appointment_time", http.StatusBadRequest)
			return
		}
		at = &parsed
	}
	if at == nil {
		http.Error(w, "no appointment time chosen", http.StatusUnprocessableEntity)
		return
	}

	tmpl, err := h.lookupTemplate(ctx, appt.AvailabilityID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			http.Error(w, "availability not found", http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, "directory service unavailable", http.StatusServiceUnavailable)
		return
	}
	if err := slot.Validate(*at, tmpl, h.now().UTC()); err != nil {
		writeSlotError(w, err)
		return
	}

	err = h.repo.CompleteDraft(ctx, tx, apptID, storage.CompletionDetails{
		FullName:        req.FullName,
		NIC:             req.NIC,
		PhoneNumber:     req.PhoneNumber,
		Address:         req.Address,
		BirthDate:       birthDate,
		Gender:          req.Gender,
		Email:           req.Email,
		AppointmentTime: *at,
		Notes:           req.Notes,
	})
	if err != nil {
		if storage.IsConflict(err) {
			http.Error(w, "time slot already booked", http.StatusConflict)
			return
		}
		http.Error(w, "failed to complete draft", http.StatusInternalServerError)
		return
	}

	if err := h.emitBooked(ctx, tx, apptID, appt.OwnerID, appt.ServiceID, appt.AvailabilityID, *at); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		if storage.IsConflict(err) {
			http.Error(w, "time slot already booked", http.StatusConflict)
			return
		}
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	updated, err := h.repo.Get(ctx, apptID)
	if err != nil {
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(updated))
}

type createAppointmentRequest struct {
	ServiceID       string `json:"service_id"`
	AvailabilityID  string `json:"availability_id"`
	AppointmentTime string `json:"appointment_time"`
	FullName        string `json:"full_name"`
	NIC             string `json:"nic"`
	PhoneNumber     string `json:"phone_number"`
	Address         string `json:"address"`
	BirthDate       string `json:"birth_date"`
	Gender          string `json:"gender"`
	Email           string `json:"email"`
	Username        string `json:"username"`
	Notes           string `json:"notes"`
}

// Create books an appointment in one step: the draft/attach/complete checks
// run inline and the row is born pending.
func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	id := callerIdentity(r)
	if id.UserID == "" {
		forbidden(w)
		return
	}

	var req createAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	req.AvailabilityID = strings.TrimSpace(req.AvailabilityID)
	req.FullName = strings.TrimSpace(req.FullName)
	req.NIC = strings.TrimSpace(req.NIC)
	if req.ServiceID == "" || req.AvailabilityID == "" || req.AppointmentTime == "" ||
		req.FullName == "" || req.NIC == "" || req.PhoneNumber == "" || req.Email == "" {
		http.Error(w, "missing required fields", http.StatusBadRequest)
		return
	}
	at, err := time.Parse(time.RFC3339, req.AppointmentTime)
	if err != nil {
		http.Error(w, "invalid appointment_time", http.StatusBadRequest)
		return
	}
	birthDate, err := time.Parse("2006-01-02", req.BirthDate)
	if err != nil {
		http.Error(w, "invalid birth_date", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tmpl, err := h.lookupTemplate(ctx, req.AvailabilityID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			http.Error(w, "availability not found", http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, "directory service unavailable", http.StatusServiceUnavailable)
		return
	}
	if tmpl.ServiceID != req.ServiceID {
		writeSlotError(w, slot.ErrServiceMismatch)
		return
	}
	if err := slot.Validate(at, tmpl, h.now().UTC()); err != nil {
		writeSlotError(w, err)
		return
	}

	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt := &model.Appointment{
		OwnerID:         id.UserID,
		ServiceID:       req.ServiceID,
		AvailabilityID:  req.AvailabilityID,
		FullName:        req.FullName,
		NIC:             req.NIC,
		PhoneNumber:     req.PhoneNumber,
		Address:         req.Address,
		BirthDate:       &birthDate,
		Gender:          req.Gender,
		Email:           req.Email,
		Username:        strings.TrimSpace(req.Username),
		AppointmentTime: &at,
		Notes:           req.Notes,
	}
	apptID, err := h.repo.CreateBooked(ctx, tx, appt)
	if err != nil {
		if storage.IsConflict(err) {
			http.Error(w, "time slot already booked", http.StatusConflict)
			return
		}
		http.Error(w, "failed to create appointment", http.StatusInternalServerError)
		return
	}
	if err := h.emitBooked(ctx, tx, apptID, id.UserID, req.ServiceID, req.AvailabilityID, at); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		if storage.IsConflict(err) {
			http.Error(w, "time slot already booked", http.StatusConflict)
			return
		}
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"appointment_id": apptID})
}

func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := callerIdentity(r)
	appt, err := h.repo.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	if !canAccess(&appt, id) {
		forbidden(w)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(appt))
}

func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := callerIdentity(r)
	apptID := r.PathValue("id")

	var req struct {
		Notes string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := h.repo.GetForUpdate(ctx, tx, apptID)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	if !canAccess(&appt, id) {
		forbidden(w)
		return
	}
	if err := h.repo.UpdateNotes(ctx, tx, apptID, req.Notes); err != nil {
		http.Error(w, "failed to update appointment", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	updated, err := h.repo.Get(ctx, apptID)
	if err != nil {
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(updated))
}

func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := callerIdentity(r)
	apptID := r.PathValue("id")

	appt, err := h.repo.Get(r.Context(), apptID)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	if !canAccess(&appt, id) {
		forbidden(w)
		return
	}
	if err := h.repo.Delete(r.Context(), apptID); err != nil {
		h.writeLookupError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AppointmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := callerIdentity(r)
	apptID := r.PathValue("id")

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	next, err := model.ParseStatus(req.Status)
	if err != nil {
		http.Error(w, "invalid status", http.StatusUnprocessableEntity)
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := h.repo.GetForUpdate(ctx, tx, apptID)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	if !canAccess(&appt, id) {
		forbidden(w)
		return
	}
	if !appt.Status.CanTransition(next) {
		http.Error(w, "invalid status transition", http.StatusUnprocessableEntity)
		return
	}

	if err := h.repo.UpdateStatus(ctx, tx, apptID, next); err != nil {
		http.Error(w, "failed to update status", http.StatusInternalServerError)
		return
	}
	evt, err := events.NewAppointmentStatusChanged(events.AppointmentStatusChanged{
		AppointmentID: apptID,
		ServiceID:     appt.ServiceID,
		From:          string(appt.Status),
		To:            string(next),
		ChangedAt:     h.now().UTC(),
	})
	if err != nil {
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}
	if err := h.outbox.Insert(ctx, tx, evt); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	updated, err := h.repo.Get(ctx, apptID)
	if err != nil {
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(updated))
}

func (h *AppointmentHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	id := callerIdentity(r)
	if id.UserID == "" {
		forbidden(w)
		return
	}
	q := r.URL.Query()
	appts, err := h.repo.ListForOwner(r.Context(), id.UserID, storage.OwnerFilters{
		Status: strings.TrimSpace(q.Get("status")),
		Date:   strings.TrimSpace(q.Get("date")),
	})
	if err != nil {
		h.logger.Error("owner listing failed", "err", err)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toResponses(appts))
}

func (h *AppointmentHandler) ListOrganization(w http.ResponseWriter, r *http.Request) {
	id := callerIdentity(r)
	if id.OrgID == "" {
		forbidden(w)
		return
	}
	q := r.URL.Query()
	appts, err := h.repo.ListForOrganization(r.Context(), storage.OrgFilters{
		DepartmentID: strings.TrimSpace(q.Get("department")),
		ServiceID:    strings.TrimSpace(q.Get("service")),
		Status:       strings.TrimSpace(q.Get("status")),
		Date:         strings.TrimSpace(q.Get("date")),
		NIC:          strings.TrimSpace(q.Get("nic")),
		Username:     strings.TrimSpace(q.Get("username")),
	})
	if err != nil {
		h.logger.Error("organization listing failed", "err", err)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toResponses(appts))
}

func toResponses(appts []model.Appointment) []appointmentResponse {
	out := make([]appointmentResponse, 0, len(appts))
	for _, a := range appts {
		out = append(out, toResponse(a))
	}
	return out
}

func (h *AppointmentHandler) lookupTemplate(ctx context.Context, availabilityID string) (catalog.Template, error) {
	if h.catalog == nil {
		return catalog.Template{}, errors.New("catalog provider not configured")
	}
	return h.catalog.GetTemplate(ctx, availabilityID)
}

func (h *AppointmentHandler) emitBooked(ctx context.Context, tx pgx.Tx, apptID, ownerID, serviceID, availabilityID string, at time.Time) error {
	evt, err := events.NewAppointmentBooked(events.AppointmentBooked{
		AppointmentID:   apptID,
		OwnerID:         ownerID,
		ServiceID:       serviceID,
		AvailabilityID:  availabilityID,
		AppointmentTime: at.UTC(),
		BookedAt:        h.now().UTC(),
	})
	if err != nil {
		return err
	}
	return h.outbox.Insert(ctx, tx, evt)
}

// writeLookupError answers a missing id exactly like a foreign one, so
// callers cannot probe which appointment ids exist.
func (h *AppointmentHandler) writeLookupError(w http.ResponseWriter, err error) {
	if storage.IsNotFound(err) {
		forbidden(w)
		return
	}
	http.Error(w, "db error", http.StatusInternalServerError)
}
