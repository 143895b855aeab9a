package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medidesk/medidesk-platform/internal/scheduling"
	"github.com/medidesk/medidesk-platform/internal/tenancy"
)

// ErrClinicScope is returned when a clinic-scoped request books a slot that
// belongs to a different clinic.
var ErrClinicScope = errors.New("bookings: slot belongs to another clinic")

// bookingsDB is the pool surface the repository uses; pgxmock satisfies it.
type bookingsDB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository persists token appointments.
type Repository struct {
	db      bookingsDB
	counter *TokenCounter
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool, counter *TokenCounter) *Repository {
	if pool == nil {
		panic("bookings: pgx pool required")
	}
	return &Repository{db: pool, counter: counter}
}

// NewRepositoryWithDB allows injecting a mock database for testing.
func NewRepositoryWithDB(db bookingsDB, counter *TokenCounter) *Repository {
	return &Repository{db: db, counter: counter}
}

const bookingColumns = `id, token_number, slot_id, doctor_id, clinic_id, patient_name, email, phone, age, gender, reason, notes, user_id, status, created_at`

// Create books a slot inside one transaction. The slot row is locked so two
// concurrent requests cannot both take the last seat; the occupancy counter
// decides fullness, never the status label.
func (r *Repository) Create(ctx context.Context, req scheduling.CreateBookingRequest, userID int64) (*scheduling.Booking, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("bookings: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	slot, err := lockSlot(ctx, tx, req.SlotID)
	if err != nil {
		return nil, err
	}

	// X-Clinic-Id scoped requests may only book slots in that clinic.
	if scoped, ok := tenancy.ClinicIDFromContext(ctx); ok && scoped != slot.ClinicID {
		return nil, ErrClinicScope
	}

	updated, err := scheduling.ApplyBooking(*slot)
	if err != nil {
		return nil, err
	}

	seq, err := r.counter.Next(ctx, slot.ClinicID, slot.Date)
	if err != nil {
		return nil, err
	}
	token := FormatToken(slot.ClinicID, slot.Date, seq)

	if _, err := tx.Exec(ctx,
		`UPDATE slots SET current_bookings = $1, status = $2 WHERE id = $3`,
		updated.CurrentBookings, string(updated.Status), updated.ID,
	); err != nil {
		return nil, fmt.Errorf("bookings: update slot occupancy: %w", err)
	}

	booking := scheduling.Booking{
		TokenNumber: token,
		SlotID:      slot.ID,
		DoctorID:    slot.DoctorID,
		ClinicID:    slot.ClinicID,
		PatientName: req.PatientName,
		Email:       req.Email,
		Phone:       req.Phone,
		Age:         req.Age,
		Gender:      req.Gender,
		Reason:      req.Reason,
		Notes:       req.Notes,
		UserID:      userID,
		Status:      scheduling.BookingPending,
	}
	row := tx.QueryRow(ctx, `
		INSERT INTO bookings (token_number, slot_id, doctor_id, clinic_id, patient_name, email, phone, age, gender, reason, notes, user_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at
	`, booking.TokenNumber, booking.SlotID, booking.DoctorID, booking.ClinicID,
		booking.PatientName, booking.Email, booking.Phone, booking.Age,
		booking.Gender, booking.Reason, booking.Notes, booking.UserID, string(booking.Status))
	if err := row.Scan(&booking.ID, &booking.CreatedAt); err != nil {
		return nil, fmt.Errorf("bookings: insert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("bookings: commit: %w", err)
	}
	return &booking, nil
}

func lockSlot(ctx context.Context, tx pgx.Tx, slotID int64) (*scheduling.Slot, error) {
	var s scheduling.Slot
	var status string
	err := tx.QueryRow(ctx, `
		SELECT id, doctor_id, clinic_id, date, start_time, end_time, duration_minutes, max_patients, current_bookings, status, created_at
		FROM slots WHERE id = $1 FOR UPDATE
	`, slotID).Scan(
		&s.ID, &s.DoctorID, &s.ClinicID, &s.Date, &s.StartTime, &s.EndTime,
		&s.DurationMinutes, &s.MaxPatients, &s.CurrentBookings, &status, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, scheduling.ErrSlotNotFound
		}
		return nil, fmt.Errorf("bookings: lock slot: %w", err)
	}
	s.Status = scheduling.SlotStatus(status)
	return &s, nil
}

// GetByID loads one booking.
func (r *Repository) GetByID(ctx context.Context, id int64) (*scheduling.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, scheduling.ErrBookingNotFound
		}
		return nil, fmt.Errorf("bookings: get: %w", err)
	}
	return b, nil
}

// UpdateStatus performs a compare-and-set status change.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, from, to scheduling.BookingStatus) error {
	tag, err := r.db.Exec(ctx, `UPDATE bookings SET status = $1 WHERE id = $2 AND status = $3`,
		string(to), id, string(from))
	if err != nil {
		return fmt.Errorf("bookings: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return scheduling.ErrBookingNotFound
	}
	return nil
}

// ReleaseSeat decrements a slot's occupancy after a cancellation and reopens
// the slot if the counter had marked it Booked.
func (r *Repository) ReleaseSeat(ctx context.Context, slotID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE slots
		SET current_bookings = GREATEST(current_bookings - 1, 0),
		    status = CASE WHEN status = $1 THEN $2 ELSE status END
		WHERE id = $3
	`, string(scheduling.SlotBooked), string(scheduling.SlotAvailable), slotID)
	if err != nil {
		return fmt.Errorf("bookings: release seat: %w", err)
	}
	return nil
}

// CountForDay returns bookings created for a clinic whose slot falls on the
// given day. The token counter uses it as the Redis fallback; the next
// sequence value is the count plus one, which the fallback closure adds.
func (r *Repository) CountForDay(ctx context.Context, clinicID int64, day time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM bookings b
		JOIN slots s ON s.id = b.slot_id
		WHERE b.clinic_id = $1 AND s.date = $2
	`, clinicID, day).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("bookings: count for day: %w", err)
	}
	return n, nil
}

func scanBooking(row pgx.Row) (*scheduling.Booking, error) {
	var b scheduling.Booking
	var status string
	if err := row.Scan(
		&b.ID,
		&b.TokenNumber,
		&b.SlotID,
		&b.DoctorID,
		&b.ClinicID,
		&b.PatientName,
		&b.Email,
		&b.Phone,
		&b.Age,
		&b.Gender,
		&b.Reason,
		&b.Notes,
		&b.UserID,
		&status,
		&b.CreatedAt,
	); err != nil {
		return nil, err
	}
	b.Status = scheduling.BookingStatus(status)
	return &b, nil
}
