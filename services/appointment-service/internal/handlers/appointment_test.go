package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/citizengate/citizengate/libs/outbox"
	"github.com/citizengate/citizengate/services/appointment-service/internal/catalog"
	"github.com/citizengate/citizengate/services/appointment-service/internal/model"
	"github.com/citizengate/citizengate/services/appointment-service/internal/storage"
)

// fakeTx satisfies pgx.Tx for handlers that only Begin/Commit/Rollback.
// Embedding the interface leaves the remaining methods panicking if reached.
type fakeTx struct{ pgx.Tx }

func (fakeTx) Commit(context.Context) error   { return nil }
func (fakeTx) Rollback(context.Context) error { return nil }

type attachCall struct {
	id, serviceID, availabilityID string
	at                            time.Time
}

type fakeStore struct {
	appts     map[string]*model.Appointment
	attached  []attachCall
	completed []string
}

func newFakeStore(appts ...*model.Appointment) *fakeStore {
	s := &fakeStore{appts: map[string]*model.Appointment{}}
	for _, a := range appts {
		s.appts[a.ID] = a
	}
	return s
}

func (s *fakeStore) Begin(ctx context.Context) (pgx.Tx, error) { return fakeTx{}, nil }

func (s *fakeStore) CreateDraft(ctx context.Context, ownerID, username string) (model.Appointment, error) {
	a := &model.Appointment{
		ID:       fmt.Sprintf("draft-%d", len(s.appts)+1),
		OwnerID:  ownerID,
		Username: username,
		Status:   model.StatusDraft,
	}
	s.appts[a.ID] = a
	return *a, nil
}

func (s *fakeStore) Get(ctx context.Context, id string) (model.Appointment, error) {
	a, ok := s.appts[id]
	if !ok {
		return model.Appointment{}, pgx.ErrNoRows
	}
	return *a, nil
}

func (s *fakeStore) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (model.Appointment, error) {
	return s.Get(ctx, id)
}

func (s *fakeStore) AttachService(ctx context.Context, tx pgx.Tx, id string, serviceID, availabilityID string, at time.Time) error {
	a, ok := s.appts[id]
	if !ok {
		return pgx.ErrNoRows
	}
	a.ServiceID = serviceID
	a.AvailabilityID = availabilityID
	a.AppointmentTime = &at
	s.attached = append(s.attached, attachCall{id: id, serviceID: serviceID, availabilityID: availabilityID, at: at})
	return nil
}

func (s *fakeStore) CompleteDraft(ctx context.Context, tx pgx.Tx, id string, d storage.CompletionDetails) error {
	a, ok := s.appts[id]
	if !ok {
		return pgx.ErrNoRows
	}
	a.FullName = d.FullName
	a.NIC = d.NIC
	a.PhoneNumber = d.PhoneNumber
	a.Email = d.Email
	a.AppointmentTime = &d.AppointmentTime
	a.Status = model.StatusPending
	s.completed = append(s.completed, id)
	return nil
}

func (s *fakeStore) CreateBooked(ctx context.Context, tx pgx.Tx, appt *model.Appointment) (string, error) {
	id := fmt.Sprintf("appt-%d", len(s.appts)+1)
	appt.ID = id
	appt.Status = model.StatusPending
	s.appts[id] = appt
	return id, nil
}

func (s *fakeStore) UpdateStatus(ctx context.Context, tx pgx.Tx, id string, status model.Status) error {
	a, ok := s.appts[id]
	if !ok {
		return pgx.ErrNoRows
	}
	a.Status = status
	return nil
}

func (s *fakeStore) UpdateNotes(ctx context.Context, tx pgx.Tx, id string, notes string) error {
	a, ok := s.appts[id]
	if !ok {
		return pgx.ErrNoRows
	}
	a.Notes = notes
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, id string) error {
	if _, ok := s.appts[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(s.appts, id)
	return nil
}

func (s *fakeStore) SetDocuments(ctx context.Context, tx pgx.Tx, id string, docs []model.Document) error {
	a, ok := s.appts[id]
	if !ok {
		return pgx.ErrNoRows
	}
	a.Documents = docs
	return nil
}

func (s *fakeStore) ListForOwner(ctx context.Context, ownerID string, f storage.OwnerFilters) ([]model.Appointment, error) {
	var out []model.Appointment
	for _, a := range s.appts {
		if a.OwnerID == ownerID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *fakeStore) ListForOrganization(ctx context.Context, f storage.OrgFilters) ([]model.Appointment, error) {
	var out []model.Appointment
	for _, a := range s.appts {
		if a.Status != model.StatusDraft {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *fakeStore) BookedInstants(ctx context.Context, availabilityID string, from, to time.Time) ([]time.Time, error) {
	return nil, nil
}

type fakeRecorder struct {
	events []outbox.Event
}

func (f *fakeRecorder) Insert(ctx context.Context, tx pgx.Tx, evt outbox.Event) error {
	f.events = append(f.events, evt)
	return nil
}

type fakeCatalog struct {
	templates map[string]catalog.Template
}

func (f *fakeCatalog) GetTemplate(ctx context.Context, availabilityID string) (catalog.Template, error) {
	tmpl, ok := f.templates[availabilityID]
	if !ok {
		return catalog.Template{}, catalog.ErrNotFound
	}
	return tmpl, nil
}

func (f *fakeCatalog) ListTemplates(ctx context.Context, serviceID string) ([]catalog.Template, error) {
	return nil, nil
}

// mondayTemplate is open 09:00-12:00 on Mondays.
func mondayTemplate() catalog.Template {
	return catalog.Template{
		AvailabilityID:  "av-1",
		ServiceID:       "svc-1",
		DayOfWeek:       "monday",
		StartTime:       "09:00",
		EndTime:         "12:00",
		DurationMinutes: 30,
	}
}

func newTestHandler(store *fakeStore) (*AppointmentHandler, *fakeRecorder) {
	rec := &fakeRecorder{}
	cat := &fakeCatalog{templates: map[string]catalog.Template{"av-1": mondayTemplate()}}
	h := NewAppointmentHandler(store, rec, cat, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	// 2026-03-02 is a Monday.
	h.now = func() time.Time { return time.Date(2026, 3, 2, 2, 0, 0, 0, time.UTC) }
	return h, rec
}

func serve(h *AppointmentHandler, r *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	h.Register(mux)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return w
}

func draftOwnedBy(owner string) *model.Appointment {
	return &model.Appointment{ID: "a1", OwnerID: owner, Status: model.StatusDraft}
}

const attachBody = `{"service_id":"svc-1","availability_id":"av-1","appointment_time":"2026-03-02T11:30:00Z"}`

func TestAttachServiceRejectsNonDraft(t *testing.T) {
	store := newFakeStore(&model.Appointment{ID: "a1", OwnerID: "u1", Status: model.StatusPending})
	h, _ := newTestHandler(store)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/appointments/a1/service", strings.NewReader(attachBody))
	req.Header.Set("X-User-Id", "u1")
	w := serve(h, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}
	if len(store.attached) != 0 {
		t.Errorf("non-draft appointment was modified: %+v", store.attached)
	}
	if store.appts["a1"].Status != model.StatusPending {
		t.Errorf("status changed to %q", store.appts["a1"].Status)
	}
}

func TestAttachServiceForeignDraft(t *testing.T) {
	store := newFakeStore(draftOwnedBy("u1"))
	h, _ := newTestHandler(store)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/appointments/a1/service", strings.NewReader(attachBody))
	req.Header.Set("X-User-Id", "u2")
	w := serve(h, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	if len(store.attached) != 0 {
		t.Errorf("foreign draft was modified: %+v", store.attached)
	}
}

func TestAttachServiceServiceMismatch(t *testing.T) {
	store := newFakeStore(draftOwnedBy("u1"))
	h, _ := newTestHandler(store)

	body := `{"service_id":"svc-other","availability_id":"av-1","appointment_time":"2026-03-02T11:30:00Z"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/appointments/a1/service", strings.NewReader(body))
	req.Header.Set("X-User-Id", "u1")
	w := serve(h, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}
	if !strings.Contains(w.Body.String(), "does not belong") {
		t.Errorf("body = %q", w.Body.String())
	}
}

// An instant the public slot listing advertises must stay bookable no matter
// what timezone the server process runs in: validation pins the clock to UTC
// exactly like enumeration does.
func TestAttachServiceWithNonUTCServerClock(t *testing.T) {
	store := newFakeStore(draftOwnedBy("u1"))
	h, _ := newTestHandler(store)
	lkt := time.FixedZone("LKT", 5*3600+1800)
	h.now = func() time.Time { return time.Date(2026, 3, 2, 8, 0, 0, 0, lkt) }

	// 11:30 UTC is inside the Monday 09:00-12:00 window; in +05:30 wall time
	// it would read as 17:00 and be rejected.
	req := httptest.NewRequest(http.MethodPut, "/api/v1/appointments/a1/service", strings.NewReader(attachBody))
	req.Header.Set("X-User-Id", "u1")
	w := serve(h, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if len(store.attached) != 1 {
		t.Fatalf("attached calls = %d, want 1", len(store.attached))
	}
	want := time.Date(2026, 3, 2, 11, 30, 0, 0, time.UTC)
	if !store.attached[0].at.Equal(want) {
		t.Errorf("attached instant = %v, want %v", store.attached[0].at, want)
	}
}

const completeBody = `{"full_name":"Nimal Perera","nic":"902541234V","phone_number":"0771234567",` +
	`"email":"nimal@example.com","birth_date":"1990-09-10"}`

func TestCompleteDraftTwice(t *testing.T) {
	at := time.Date(2026, 3, 2, 11, 30, 0, 0, time.UTC)
	store := newFakeStore(&model.Appointment{
		ID:              "a1",
		OwnerID:         "u1",
		Status:          model.StatusDraft,
		ServiceID:       "svc-1",
		AvailabilityID:  "av-1",
		AppointmentTime: &at,
	})
	h, rec := newTestHandler(store)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/appointments/a1/complete", strings.NewReader(completeBody))
	req.Header.Set("X-User-Id", "u1")
	if w := serve(h, req); w.Code != http.StatusOK {
		t.Fatalf("first complete: status = %d: %s", w.Code, w.Body.String())
	}
	if store.appts["a1"].Status != model.StatusPending {
		t.Fatalf("status after complete = %q, want pending", store.appts["a1"].Status)
	}

	req = httptest.NewRequest(http.MethodPut, "/api/v1/appointments/a1/complete", strings.NewReader(completeBody))
	req.Header.Set("X-User-Id", "u1")
	w := serve(h, req)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("second complete: status = %d, want 422", w.Code)
	}
	if len(store.completed) != 1 {
		t.Errorf("completed %d times, want 1", len(store.completed))
	}
	if len(rec.events) != 1 {
		t.Errorf("outbox events = %d, want 1", len(rec.events))
	}
}

// A missing id and someone else's id must be indistinguishable to a caller.
func TestGetHidesExistenceFromNonOwners(t *testing.T) {
	store := newFakeStore(&model.Appointment{ID: "a1", OwnerID: "u1", Status: model.StatusPending})
	h, _ := newTestHandler(store)

	foreign := httptest.NewRequest(http.MethodGet, "/api/v1/appointments/a1", nil)
	foreign.Header.Set("X-User-Id", "u2")
	wForeign := serve(h, foreign)

	missing := httptest.NewRequest(http.MethodGet, "/api/v1/appointments/no-such-id", nil)
	missing.Header.Set("X-User-Id", "u2")
	wMissing := serve(h, missing)

	if wForeign.Code != http.StatusForbidden || wMissing.Code != http.StatusForbidden {
		t.Fatalf("status foreign = %d, missing = %d, want 403 for both", wForeign.Code, wMissing.Code)
	}
	if wForeign.Body.String() != wMissing.Body.String() {
		t.Errorf("responses differ: foreign %q vs missing %q", wForeign.Body.String(), wMissing.Body.String())
	}
}
