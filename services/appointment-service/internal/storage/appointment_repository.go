package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/citizengate/citizengate/libs/db"
	"github.com/citizengate/citizengate/services/appointment-service/internal/model"
)

type AppointmentRepository struct {
	pool *db.Pool
}

func NewAppointmentRepository(pool *db.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

func (r *AppointmentRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

const appointmentColumns = `
	appointment_id::text, owner_id, COALESCE(service_id::text, ''), COALESCE(availability_id::text, ''),
	COALESCE(full_name, ''), COALESCE(nic, ''), COALESCE(phone_number, ''), COALESCE(address, ''),
	birth_date, COALESCE(gender, ''), COALESCE(email, ''), COALESCE(username, ''),
	appointment_time, status, COALESCE(notes, ''), documents_submitted, reminders_sent, created_at, updated_at`

func (r *AppointmentRepository) CreateDraft(ctx context.Context, ownerID string, username string) (model.Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (owner_id, username, status)
		VALUES ($1, $2, 'draft')
		RETURNING`+appointmentColumns,
		ownerID, username)
	return scanAppointment(row)
}

func (r *AppointmentRepository) Get(ctx context.Context, id string) (model.Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT`+appointmentColumns+`
		FROM appointments
		WHERE appointment_id = $1
	`, id)
	return scanAppointment(row)
}

func (r *AppointmentRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (model.Appointment, error) {
	row := tx.QueryRow(ctx, `
		SELECT`+appointmentColumns+`
		FROM appointments
		WHERE appointment_id = $1
		FOR UPDATE
	`, id)
	return scanAppointment(row)
}

// AttachService records the chosen service, template and instant on a draft.
// The caller has already verified draft status, ownership and slot
// admissibility under GetForUpdate.
func (r *AppointmentRepository) AttachService(ctx context.Context, tx pgx.Tx, id string, serviceID, availabilityID string, at time.Time) error {
	tag, err := tx.Exec(ctx, `
		UPDATE appointments
		SET service_id = $2,
			availability_id = $3,
			appointment_time = $4,
			updated_at = now()
		WHERE appointment_id = $1
	`, id, serviceID, availabilityID, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// CompletionDetails are the citizen identity fields required once a draft
// leaves the draft state.
type CompletionDetails struct {
	FullName        string
	NIC             string
	PhoneNumber     string
	Address         string
	BirthDate       time.Time
	Gender          string
	Email           string
	AppointmentTime time.Time
	Notes           string
}

// CompleteDraft promotes a draft to pending. The partial unique index on
// (availability_id, appointment_time) makes the promotion fail for a slot
// another booking already holds; callers detect that with IsConflict.
func (r *AppointmentRepository) CompleteDraft(ctx context.Context, tx pgx.Tx, id string, d CompletionDetails) error {
	tag, err := tx.Exec(ctx, `
		UPDATE appointments
		SET full_name = $2,
			nic = $3,
			phone_number = $4,
			address = $5,
			birth_date = $6,
			gender = $7,
			email = $8,
			appointment_time = $9,
			notes = $10,
			status = 'pending',
			updated_at = now()
		WHERE appointment_id = $1
	`, id, d.FullName, d.NIC, d.PhoneNumber, d.Address, d.BirthDate, d.Gender, d.Email, d.AppointmentTime, d.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// CreateBooked inserts a single-step appointment directly in pending state.
func (r *AppointmentRepository) CreateBooked(ctx context.Context, tx pgx.Tx, appt *model.Appointment) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
		INSERT INTO appointments
			(owner_id, service_id, availability_id, full_name, nic, phone_number, address,
			 birth_date, gender, email, username, appointment_time, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 'pending', $13)
		RETURNING appointment_id::text
	`, appt.OwnerID, appt.ServiceID, appt.AvailabilityID, appt.FullName, appt.NIC, appt.PhoneNumber,
		appt.Address, appt.BirthDate, appt.Gender, appt.Email, appt.Username, appt.AppointmentTime,
		appt.Notes).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *AppointmentRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id string, status model.Status) error {
	tag, err := tx.Exec(ctx, `
		UPDATE appointments
		SET status = $2, updated_at = now()
		WHERE appointment_id = $1
	`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *AppointmentRepository) UpdateNotes(ctx context.Context, tx pgx.Tx, id string, notes string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE appointments
		SET notes = $2, updated_at = now()
		WHERE appointment_id = $1
	`, id, notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *AppointmentRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE appointment_id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SetDocuments replaces the document list. Callers compute the new list with
// the model helpers while holding the row FOR UPDATE, so the write cannot
// race another document mutation.
func (r *AppointmentRepository) SetDocuments(ctx context.Context, tx pgx.Tx, id string, docs []model.Document) error {
	if docs == nil {
		docs = []model.Document{}
	}
	raw, err := json.Marshal(docs)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
		UPDATE appointments
		SET documents_submitted = $2, updated_at = now()
		WHERE appointment_id = $1
	`, id, raw)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// OwnerFilters narrow a citizen's own listing.
type OwnerFilters struct {
	Status string
	Date   string // YYYY-MM-DD
}

func (r *AppointmentRepository) ListForOwner(ctx context.Context, ownerID string, f OwnerFilters) ([]model.Appointment, error) {
	where := []string{"owner_id = $1"}
	args := []any{ownerID}

	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Date != "" {
		args = append(args, f.Date)
		where = append(where, fmt.Sprintf("appointment_time::date = $%d::date", len(args)))
	}

	return r.list(ctx, `
		SELECT`+appointmentColumns+`
		FROM appointments
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY appointment_time DESC NULLS LAST, created_at DESC
	`, args)
}

// OrgFilters narrow the organization-wide listing used by officer dashboards.
type OrgFilters struct {
	DepartmentID string
	ServiceID    string
	Status       string
	Date         string // YYYY-MM-DD
	NIC          string
	Username     string
}

func (r *AppointmentRepository) ListForOrganization(ctx context.Context, f OrgFilters) ([]model.Appointment, error) {
	// Drafts are private to their owners and never appear on dashboards.
	where := []string{"a.status <> 'draft'"}
	var args []any

	if f.DepartmentID != "" {
		args = append(args, f.DepartmentID)
		where = append(where, fmt.Sprintf(
			"a.service_id IN (SELECT service_id FROM government_services WHERE department_id = $%d::int)", len(args)))
	}
	if f.ServiceID != "" {
		args = append(args, f.ServiceID)
		where = append(where, fmt.Sprintf("a.service_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("a.status = $%d", len(args)))
	}
	if f.Date != "" {
		args = append(args, f.Date)
		where = append(where, fmt.Sprintf("a.appointment_time::date = $%d::date", len(args)))
	}
	if f.NIC != "" {
		args = append(args, f.NIC)
		where = append(where, fmt.Sprintf("a.nic = $%d", len(args)))
	}
	if f.Username != "" {
		args = append(args, f.Username)
		where = append(where, fmt.Sprintf("a.username = $%d", len(args)))
	}

	return r.list(ctx, `
		SELECT`+strings.ReplaceAll(appointmentColumns, "appointment_id", "a.appointment_id")+`
		FROM appointments a
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY a.appointment_time DESC NULLS LAST
		LIMIT 500
	`, args)
}

// BookedInstants returns the appointment times already held against a
// template within [from, to). Used to subtract taken slots from enumeration.
func (r *AppointmentRepository) BookedInstants(ctx context.Context, availabilityID string, from, to time.Time) ([]time.Time, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT appointment_time
		FROM appointments
		WHERE availability_id = $1
			AND status NOT IN ('draft', 'cancelled')
			AND appointment_time >= $2
			AND appointment_time < $3
	`, availabilityID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *AppointmentRepository) list(ctx context.Context, query string, args []any) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	return appts, rows.Err()
}

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var (
		appt      model.Appointment
		birthDate *time.Time
		apptTime  *time.Time
		status    string
		docsRaw   []byte
		remRaw    []byte
	)
	err := row.Scan(
		&appt.ID,
		&appt.OwnerID,
		&appt.ServiceID,
		&appt.AvailabilityID,
		&appt.FullName,
		&appt.NIC,
		&appt.PhoneNumber,
		&appt.Address,
		&birthDate,
		&appt.Gender,
		&appt.Email,
		&appt.Username,
		&apptTime,
		&status,
		&appt.Notes,
		&docsRaw,
		&remRaw,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	appt.BirthDate = birthDate
	appt.AppointmentTime = apptTime
	appt.Status = model.Status(status)
	if len(docsRaw) > 0 {
		if err := json.Unmarshal(docsRaw, &appt.Documents); err != nil {
			return model.Appointment{}, err
		}
	}
	if len(remRaw) > 0 {
		if err := json.Unmarshal(remRaw, &appt.Reminders); err != nil {
			return model.Appointment{}, err
		}
	}
	return appt, nil
}

// IsConflict reports a unique or exclusion violation, which for appointments
// means another booking already holds the (availability, instant) slot.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && (pgErr.Code == "23505" || pgErr.Code == "23P01")
}

// IsNotFound also treats 22P02 (invalid text for uuid) as not-found: a
// malformed id cannot name an existing row, and surfacing the cast failure
// as a server error would leak the id shape check to callers.
func IsNotFound(err error) bool {
	if errors.Is(err, pgx.ErrNoRows) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}
