package slots

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medidesk/medidesk-platform/internal/scheduling"
)

// slotsDB is the slice of pgxpool.Pool the repository needs; pgxmock
// satisfies it in tests.
type slotsDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository provides persistence for slots.
type Repository struct {
	db slotsDB
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("slots: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for testing.
func NewRepositoryWithDB(db slotsDB) *Repository {
	return &Repository{db: db}
}

const slotColumns = `id, doctor_id, clinic_id, date, start_time, end_time, duration_minutes, max_patients, current_bookings, status, created_at`

// List returns slots matching the filter, ordered by date and start time.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]scheduling.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots`
	var conds []string
	var args []any
	if filter.DoctorID > 0 {
		args = append(args, filter.DoctorID)
		conds = append(conds, fmt.Sprintf("doctor_id = $%d", len(args)))
	}
	if filter.ClinicID > 0 {
		args = append(args, filter.ClinicID)
		conds = append(conds, fmt.Sprintf("clinic_id = $%d", len(args)))
	}
	if !filter.Date.IsZero() {
		args = append(args, filter.Date)
		conds = append(conds, fmt.Sprintf("date = $%d", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY date, start_time, id"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("slots: list: %w", err)
	}
	defer rows.Close()
	return scanSlots(rows)
}

// ListAvailable returns the bookable slots for a doctor on a given day. The
// SQL narrows by date; the counter check runs through the same predicate the
// booking path uses.
func (r *Repository) ListAvailable(ctx context.Context, doctorID int64, day time.Time) ([]scheduling.Slot, error) {
	all, err := r.List(ctx, ListFilter{DoctorID: doctorID, Date: day})
	if err != nil {
		return nil, err
	}
	return scheduling.FilterBookable(all, day), nil
}

// GetByID loads one slot.
func (r *Repository) GetByID(ctx context.Context, id int64) (*scheduling.Slot, error) {
	row := r.db.QueryRow(ctx, `SELECT `+slotColumns+` FROM slots WHERE id = $1`, id)
	s, err := scanSlot(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, scheduling.ErrSlotNotFound
		}
		return nil, fmt.Errorf("slots: get: %w", err)
	}
	return s, nil
}

// CreateBatch inserts the expanded schedule and returns the stored slots.
func (r *Repository) CreateBatch(ctx context.Context, batch []scheduling.Slot) ([]scheduling.Slot, error) {
	out := make([]scheduling.Slot, 0, len(batch))
	for _, s := range batch {
		row := r.db.QueryRow(ctx, `
			INSERT INTO slots (doctor_id, clinic_id, date, start_time, end_time, duration_minutes, max_patients, current_bookings, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8)
			RETURNING id, created_at
		`, s.DoctorID, s.ClinicID, s.Date, s.StartTime, s.EndTime, s.DurationMinutes, s.MaxPatients, string(s.Status))
		if err := row.Scan(&s.ID, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("slots: insert: %w", err)
		}
		s.CurrentBookings = 0
		out = append(out, s)
	}
	return out, nil
}

// UpdateStatus performs a compare-and-set status change so concurrent
// updates cannot skip a state.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, from, to scheduling.SlotStatus) error {
	tag, err := r.db.Exec(ctx, `UPDATE slots SET status = $1 WHERE id = $2 AND status = $3`,
		string(to), id, string(from))
	if err != nil {
		return fmt.Errorf("slots: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return scheduling.ErrSlotNotFound
	}
	return nil
}

func scanSlots(rows pgx.Rows) ([]scheduling.Slot, error) {
	var out []scheduling.Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("slots: scan: %w", err)
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("slots: iterate: %w", err)
	}
	return out, nil
}

func scanSlot(row pgx.Row) (*scheduling.Slot, error) {
	var s scheduling.Slot
	var status string
	if err := row.Scan(
		&s.ID,
		&s.DoctorID,
		&s.ClinicID,
		&s.Date,
		&s.StartTime,
		&s.EndTime,
		&s.DurationMinutes,
		&s.MaxPatients,
		&s.CurrentBookings,
		&status,
		&s.CreatedAt,
	); err != nil {
		return nil, err
	}
	s.Status = scheduling.SlotStatus(status)
	return &s, nil
}
