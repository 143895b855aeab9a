package doctors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Repository reads and writes doctor and assistant profiles. It runs on
// database/sql (pgx stdlib driver) rather than the pgx pool the scheduling
// repositories use; the directory is low-traffic CRUD.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a directory repository.
func NewRepository(db *sql.DB) *Repository {
	if db == nil {
		panic("doctors: database required")
	}
	return &Repository{db: db}
}

const doctorColumns = `id, user_id, clinic_id, name, specialization, qualification, experience_years, consultation_fee, email, phone, created_at`

// ListDoctors returns all doctors, optionally narrowed to one clinic.
func (r *Repository) ListDoctors(ctx context.Context, clinicID int64) ([]Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors`
	var args []any
	if clinicID > 0 {
		query += ` WHERE clinic_id = $1`
		args = append(args, clinicID)
	}
	query += ` ORDER BY name, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("doctors: list: %w", err)
	}
	defer rows.Close()

	var out []Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, fmt.Errorf("doctors: scan: %w", err)
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("doctors: iterate: %w", err)
	}
	return out, nil
}

// GetDoctor loads one doctor.
func (r *Repository) GetDoctor(ctx context.Context, id int64) (*Doctor, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+doctorColumns+` FROM doctors WHERE id = $1`, id)
	d, err := scanDoctor(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("doctors: get: %w", err)
	}
	return d, nil
}

// CreateDoctor inserts a doctor profile.
func (r *Repository) CreateDoctor(ctx context.Context, req CreateDoctorRequest) (*Doctor, error) {
	d := Doctor{
		UserID:          req.UserID,
		ClinicID:        req.ClinicID,
		Name:            req.Name,
		Specialization:  req.Specialization,
		Qualification:   req.Qualification,
		ExperienceYears: req.ExperienceYears,
		ConsultationFee: req.ConsultationFee,
		Email:           req.Email,
		Phone:           req.Phone,
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO doctors (user_id, clinic_id, name, specialization, qualification, experience_years, consultation_fee, email, phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, d.UserID, d.ClinicID, d.Name, d.Specialization, d.Qualification,
		d.ExperienceYears, d.ConsultationFee, d.Email, d.Phone,
	).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("doctors: insert: %w", err)
	}
	return &d, nil
}

// DoctorExistsByUser reports whether a doctor profile exists for the user
// account. Absence is a normal answer here, not an error.
func (r *Repository) DoctorExistsByUser(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM doctors WHERE user_id = $1)`, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("doctors: exists: %w", err)
	}
	return exists, nil
}

// ConsultationFee returns the fee for one doctor. Reporting uses it to price
// completed appointments.
func (r *Repository) ConsultationFee(ctx context.Context, doctorID int64) (float64, error) {
	var fee float64
	err := r.db.QueryRowContext(ctx,
		`SELECT consultation_fee FROM doctors WHERE id = $1`, doctorID,
	).Scan(&fee)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrDoctorNotFound
		}
		return 0, fmt.Errorf("doctors: fee: %w", err)
	}
	return fee, nil
}

const assistantColumns = `id, user_id, clinic_id, name, email, phone, created_at`

// ListAssistants returns all assistants, optionally narrowed to one clinic.
func (r *Repository) ListAssistants(ctx context.Context, clinicID int64) ([]Assistant, error) {
	query := `SELECT ` + assistantColumns + ` FROM assistants`
	var args []any
	if clinicID > 0 {
		query += ` WHERE clinic_id = $1`
		args = append(args, clinicID)
	}
	query += ` ORDER BY name, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("doctors: list assistants: %w", err)
	}
	defer rows.Close()

	var out []Assistant
	for rows.Next() {
		var a Assistant
		if err := rows.Scan(&a.ID, &a.UserID, &a.ClinicID, &a.Name, &a.Email, &a.Phone, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("doctors: scan assistant: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("doctors: iterate assistants: %w", err)
	}
	return out, nil
}

// GetAssistant loads one assistant.
func (r *Repository) GetAssistant(ctx context.Context, id int64) (*Assistant, error) {
	var a Assistant
	err := r.db.QueryRowContext(ctx,
		`SELECT `+assistantColumns+` FROM assistants WHERE id = $1`, id,
	).Scan(&a.ID, &a.UserID, &a.ClinicID, &a.Name, &a.Email, &a.Phone, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAssistantNotFound
		}
		return nil, fmt.Errorf("doctors: get assistant: %w", err)
	}
	return &a, nil
}

// CreateAssistant inserts an assistant profile.
func (r *Repository) CreateAssistant(ctx context.Context, req CreateAssistantRequest) (*Assistant, error) {
	a := Assistant{
		UserID:   req.UserID,
		ClinicID: req.ClinicID,
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO assistants (user_id, clinic_id, name, email, phone)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, a.UserID, a.ClinicID, a.Name, a.Email, a.Phone).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("doctors: insert assistant: %w", err)
	}
	return &a, nil
}

// AssistantExistsByUser reports whether an assistant profile exists for the
// user account.
func (r *Repository) AssistantExistsByUser(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM assistants WHERE user_id = $1)`, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("doctors: assistant exists: %w", err)
	}
	return exists, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDoctor(row rowScanner) (*Doctor, error) {
	var d Doctor
	if err := row.Scan(
		&d.ID, &d.UserID, &d.ClinicID, &d.Name, &d.Specialization,
		&d.Qualification, &d.ExperienceYears, &d.ConsultationFee,
		&d.Email, &d.Phone, &d.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &d, nil
}
