package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/citizengate/citizengate/libs/outbox"
	"github.com/citizengate/citizengate/services/appointment-service/internal/catalog"
	"github.com/citizengate/citizengate/services/appointment-service/internal/model"
	"github.com/citizengate/citizengate/services/appointment-service/internal/objectstore"
	"github.com/citizengate/citizengate/services/appointment-service/internal/slot"
	"github.com/citizengate/citizengate/services/appointment-service/internal/storage"
)

// AppointmentStore is the slice of the storage layer the handlers depend on.
// *storage.AppointmentRepository implements it against Postgres.
type AppointmentStore interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	CreateDraft(ctx context.Context, ownerID, username string) (model.Appointment, error)
	Get(ctx context.Context, id string) (model.Appointment, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (model.Appointment, error)
	AttachService(ctx context.Context, tx pgx.Tx, id string, serviceID, availabilityID string, at time.Time) error
	CompleteDraft(ctx context.Context, tx pgx.Tx, id string, d storage.CompletionDetails) error
	CreateBooked(ctx context.Context, tx pgx.Tx, appt *model.Appointment) (string, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id string, status model.Status) error
	UpdateNotes(ctx context.Context, tx pgx.Tx, id string, notes string) error
	Delete(ctx context.Context, id string) error
	SetDocuments(ctx context.Context, tx pgx.Tx, id string, docs []model.Document) error
	ListForOwner(ctx context.Context, ownerID string, f storage.OwnerFilters) ([]model.Appointment, error)
	ListForOrganization(ctx context.Context, f storage.OrgFilters) ([]model.Appointment, error)
	BookedInstants(ctx context.Context, availabilityID string, from, to time.Time) ([]time.Time, error)
}

// EventRecorder appends an event to the transactional outbox inside the
// caller's transaction.
type EventRecorder interface {
	Insert(ctx context.Context, tx pgx.Tx, evt outbox.Event) error
}

type AppointmentHandler struct {
	repo    AppointmentStore
	outbox  EventRecorder
	catalog catalog.Provider
	store   *objectstore.Client
	logger  *slog.Logger

	// now is the service clock; handlers pin it to UTC wherever instants are
	// validated or enumerated so both paths agree with the timestamptz
	// values stored on bookings.
	now func() time.Time
}

func NewAppointmentHandler(repo AppointmentStore, outboxRepo EventRecorder, catalogProvider catalog.Provider, store *objectstore.Client, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		repo:    repo,
		outbox:  outboxRepo,
		catalog: catalogProvider,
		store:   store,
		logger:  logger,
		now:     time.Now,
	}
}

func (h *AppointmentHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/appointments/draft", h.CreateDraft)
	mux.HandleFunc("PUT /api/v1/appointments/{id}/service", h.AttachService)
	mux.HandleFunc("PUT /api/v1/appointments/{id}/complete", h.CompleteDraft)
	mux.HandleFunc("POST /api/v1/appointments", h.Create)
	mux.HandleFunc("GET /api/v1/appointments/my", h.ListMine)
	mux.HandleFunc("GET /api/v1/appointments", h.ListOrganization)
	mux.HandleFunc("GET /api/v1/appointments/{id}", h.Get)
	mux.HandleFunc("PUT /api/v1/appointments/{id}", h.Update)
	mux.HandleFunc("DELETE /api/v1/appointments/{id}", h.Delete)
	mux.HandleFunc("PUT /api/v1/appointments/{id}/status", h.UpdateStatus)
	mux.HandleFunc("POST /api/v1/appointments/{id}/documents", h.UpsertDocument)
	mux.HandleFunc("POST /api/v1/appointments/{id}/documents/batch", h.UpsertDocumentBatch)
	mux.HandleFunc("DELETE /api/v1/appointments/{id}/documents/{documentID}", h.RemoveDocument)
	mux.HandleFunc("PUT /api/v1/appointments/{id}/documents/{documentID}/status", h.UpdateDocumentStatus)
	mux.HandleFunc("POST /api/v1/documents/upload", h.UploadDocument)
	mux.HandleFunc("GET /api/v1/public/slots", h.PublicSlots)
}

// identity carries the caller claims the gateway verified and forwarded.
type identity struct {
	UserID string
	OrgID  string
	Roles  []string
}

func callerIdentity(r *http.Request) identity {
	var roles []string
	if raw := strings.TrimSpace(r.Header.Get("X-Roles")); raw != "" {
		for _, role := range strings.Split(raw, ",") {
			if role = strings.TrimSpace(role); role != "" {
				roles = append(roles, role)
			}
		}
	}
	return identity{
		UserID: strings.TrimSpace(r.Header.Get("X-User-Id")),
		OrgID:  strings.TrimSpace(r.Header.Get("X-Organization-Id")),
		Roles:  roles,
	}
}

// canAccess allows the owning citizen and any organization officer. Answer
// identically for "missing" and "not yours" so ids cannot be probed.
func canAccess(appt *model.Appointment, id identity) bool {
	return appt.IsOwnedBy(id.UserID) || id.OrgID != ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func forbidden(w http.ResponseWriter) {
	http.Error(w, "not permitted", http.StatusForbidden)
}

// writeSlotError maps slot admissibility failures to 422 with the reason.
func writeSlotError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, slot.ErrInPast):
		http.Error(w, "appointment time is in the past", http.StatusUnprocessableEntity)
	case errors.Is(err, slot.ErrOutsideWindow):
		http.Error(w, "appointment time is outside the availability window", http.StatusUnprocessableEntity)
	case errors.Is(err, slot.ErrServiceMismatch):
		http.Error(w, "availability does not belong to the requested service", http.StatusUnprocessableEntity)
	default:
		http.Error(w, "appointment time not accepted", http.StatusUnprocessableEntity)
	}
}

type appointmentResponse struct {
	AppointmentID   string           `json:"appointment_id"`
	ServiceID       string           `json:"service_id,omitempty"`
	AvailabilityID  string           `json:"availability_id,omitempty"`
	FullName        string           `json:"full_name,omitempty"`
	NIC             string           `json:"nic,omitempty"`
	PhoneNumber     string           `json:"phone_number,omitempty"`
	Address         string           `json:"address,omitempty"`
	BirthDate       string           `json:"birth_date,omitempty"`
	Gender          string           `json:"gender,omitempty"`
	Email           string           `json:"email,omitempty"`
	Username        string           `json:"username,omitempty"`
	AppointmentTime string           `json:"appointment_time,omitempty"`
	Status          string           `json:"status"`
	Notes           string           `json:"notes,omitempty"`
	Documents       []model.Document `json:"documents_submitted"`
	Reminders       []model.Reminder `json:"reminders_sent"`
	CreatedAt       string           `json:"created_at"`
	UpdatedAt       string           `json:"updated_at"`
}

func toResponse(a model.Appointment) appointmentResponse {
	resp := appointmentResponse{
		AppointmentID:  a.ID,
		ServiceID:      a.ServiceID,
		AvailabilityID: a.AvailabilityID,
		FullName:       a.FullName,
		NIC:            a.NIC,
		PhoneNumber:    a.PhoneNumber,
		Address:        a.Address,
		Gender:         a.Gender,
		Email:          a.Email,
		Username:       a.Username,
		Status:         string(a.Status),
		Notes:          a.Notes,
		Documents:      a.Documents,
		Reminders:      a.Reminders,
		CreatedAt:      a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      a.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if resp.Documents == nil {
		resp.Documents = []model.Document{}
	}
	if resp.Reminders == nil {
		resp.Reminders = []model.Reminder{}
	}
	if a.BirthDate != nil {
		resp.BirthDate = a.BirthDate.UTC().Format("2006-01-02")
	}
	if a.AppointmentTime != nil {
		resp.AppointmentTime = a.AppointmentTime.UTC().Format(time.RFC3339)
	}
	return resp
}
