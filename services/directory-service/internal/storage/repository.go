package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/citizengate/citizengate/libs/db"
	"github.com/citizengate/citizengate/services/directory-service/internal/model"
)

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

// IsNotFound also covers 22P02 (invalid text for uuid): a malformed id in
// the path cannot name an existing row and reads as a 404, not a 500.
func IsNotFound(err error) bool {
	if errors.Is(err, pgx.ErrNoRows) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}

// Departments

func (r *Repository) CreateDepartment(ctx context.Context, d model.Department) (model.Department, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO departments (name, description, address, contact_email)
		VALUES ($1, $2, $3, $4)
		RETURNING department_id
	`, d.Name, d.Description, d.Address, d.ContactEmail).Scan(&d.DepartmentID)
	return d, err
}

func (r *Repository) GetDepartment(ctx context.Context, id int) (model.Department, error) {
	var d model.Department
	err := r.pool.QueryRow(ctx, `
		SELECT department_id, name, COALESCE(description, ''), COALESCE(address, ''), COALESCE(contact_email, '')
		FROM departments WHERE department_id = $1
	`, id).Scan(&d.DepartmentID, &d.Name, &d.Description, &d.Address, &d.ContactEmail)
	return d, err
}

func (r *Repository) ListDepartments(ctx context.Context) ([]model.Department, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT department_id, name, COALESCE(description, ''), COALESCE(address, ''), COALESCE(contact_email, '')
		FROM departments ORDER BY department_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Department
	for rows.Next() {
		var d model.Department
		if err := rows.Scan(&d.DepartmentID, &d.Name, &d.Description, &d.Address, &d.ContactEmail); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateDepartment(ctx context.Context, d model.Department) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE departments
		SET name = $2, description = $3, address = $4, contact_email = $5, updated_at = now()
		WHERE department_id = $1
	`, d.DepartmentID, d.Name, d.Description, d.Address, d.ContactEmail)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *Repository) DeleteDepartment(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM departments WHERE department_id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Services

func (r *Repository) CreateService(ctx context.Context, s model.Service) (model.Service, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO government_services (department_id, name, description, category, location)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING service_id::text
	`, s.DepartmentID, s.Name, s.Description, s.Category, s.Location).Scan(&s.ServiceID)
	return s, err
}

func (r *Repository) GetService(ctx context.Context, id string) (model.Service, error) {
	var s model.Service
	err := r.pool.QueryRow(ctx, `
		SELECT service_id::text, COALESCE(department_id, 0), name,
			COALESCE(description, ''), COALESCE(category, ''), COALESCE(location, '')
		FROM government_services WHERE service_id = $1
	`, id).Scan(&s.ServiceID, &s.DepartmentID, &s.Name, &s.Description, &s.Category, &s.Location)
	return s, err
}

func (r *Repository) ListServices(ctx context.Context, departmentID int) ([]model.Service, error) {
	query := `
		SELECT service_id::text, COALESCE(department_id, 0), name,
			COALESCE(description, ''), COALESCE(category, ''), COALESCE(location, '')
		FROM government_services`
	var args []any
	if departmentID > 0 {
		query += ` WHERE department_id = $1`
		args = append(args, departmentID)
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Service
	for rows.Next() {
		var s model.Service
		if err := rows.Scan(&s.ServiceID, &s.DepartmentID, &s.Name, &s.Description, &s.Category, &s.Location); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateService(ctx context.Context, s model.Service) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE government_services
		SET name = $2, description = $3, category = $4, location = $5, updated_at = now()
		WHERE service_id = $1
	`, s.ServiceID, s.Name, s.Description, s.Category, s.Location)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *Repository) DeleteService(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM government_services WHERE service_id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Availability

// to_char keeps the wire form HH:MM regardless of how the TIME column prints.
const availabilityColumns = `
	availability_id::text, service_id::text, day_of_week,
	to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'), duration_minutes`

// CreateAvailability inserts one window per requested weekday in a single
// transaction, so a multi-day schedule appears all at once or not at all.
func (r *Repository) CreateAvailability(ctx context.Context, serviceID string, days []string, startTime, endTime string, durationMinutes int) ([]model.Availability, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	out := make([]model.Availability, 0, len(days))
	for _, day := range days {
		var a model.Availability
		err := tx.QueryRow(ctx, `
			INSERT INTO service_availability (service_id, day_of_week, start_time, end_time, duration_minutes)
			VALUES ($1, $2, $3::time, $4::time, $5)
			RETURNING`+availabilityColumns,
			serviceID, day, startTime, endTime, durationMinutes,
		).Scan(&a.AvailabilityID, &a.ServiceID, &a.DayOfWeek, &a.StartTime, &a.EndTime, &a.DurationMinutes)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) GetAvailability(ctx context.Context, id string) (model.Availability, error) {
	var a model.Availability
	err := r.pool.QueryRow(ctx, `
		SELECT`+availabilityColumns+`
		FROM service_availability WHERE availability_id = $1
	`, id).Scan(&a.AvailabilityID, &a.ServiceID, &a.DayOfWeek, &a.StartTime, &a.EndTime, &a.DurationMinutes)
	return a, err
}

func (r *Repository) ListAvailability(ctx context.Context, serviceID string) ([]model.Availability, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+availabilityColumns+`
		FROM service_availability
		WHERE service_id = $1
		ORDER BY day_of_week, start_time
	`, serviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Availability
	for rows.Next() {
		var a model.Availability
		if err := rows.Scan(&a.AvailabilityID, &a.ServiceID, &a.DayOfWeek, &a.StartTime, &a.EndTime, &a.DurationMinutes); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repository) DeleteAvailability(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM service_availability WHERE availability_id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Required documents

func (r *Repository) CreateRequiredDocument(ctx context.Context, d model.RequiredDocument) (model.RequiredDocument, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO required_documents (service_id, name, description, is_mandatory)
		VALUES ($1, $2, $3, $4)
		RETURNING document_id::text, created_at
	`, d.ServiceID, d.Name, d.Description, d.IsMandatory).Scan(&d.DocumentID, &d.CreatedAt)
	return d, err
}

func (r *Repository) ListRequiredDocuments(ctx context.Context, serviceID string) ([]model.RequiredDocument, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT document_id::text, service_id::text, name, COALESCE(description, ''), is_mandatory, created_at
		FROM required_documents
		WHERE service_id = $1
		ORDER BY name
	`, serviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RequiredDocument
	for rows.Next() {
		var d model.RequiredDocument
		if err := rows.Scan(&d.DocumentID, &d.ServiceID, &d.Name, &d.Description, &d.IsMandatory, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *Repository) DeleteRequiredDocument(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM required_documents WHERE document_id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
