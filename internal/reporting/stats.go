package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medidesk/medidesk-platform/internal/scheduling"
)

type statsDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// StatsRepository queries dashboard-level appointment data. Aggregation
// itself happens in the pure reducers in this package; the repository only
// fetches rows.
type StatsRepository struct {
	db statsDB
}

// NewStatsRepository creates a stats repository backed by a pgx pool.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	if pool == nil {
		panic("reporting: pgx pool required")
	}
	return &StatsRepository{db: pool}
}

// NewStatsRepositoryWithDB allows injecting a mock database for testing.
func NewStatsRepositoryWithDB(db statsDB) *StatsRepository {
	return &StatsRepository{db: db}
}

const bookingSelect = `
	SELECT b.id, b.token_number, b.slot_id, b.doctor_id, b.clinic_id,
	       b.patient_name, b.email, b.phone, b.age, b.gender, b.reason,
	       b.notes, b.user_id, b.status, b.created_at
	FROM bookings b`

// AllBookings loads every booking. The global dashboard reduces them with
// CountByStatus / Revenue.
func (r *StatsRepository) AllBookings(ctx context.Context) ([]scheduling.Booking, error) {
	rows, err := r.db.Query(ctx, bookingSelect+` ORDER BY b.id`)
	if err != nil {
		return nil, fmt.Errorf("reporting: all bookings: %w", err)
	}
	defer rows.Close()
	return collectBookings(rows)
}

// BookingsCreatedBetween loads bookings created inside [start, end). The
// date-range chart buckets these by creation day.
func (r *StatsRepository) BookingsCreatedBetween(ctx context.Context, start, end time.Time) ([]scheduling.Booking, error) {
	rows, err := r.db.Query(ctx, bookingSelect+`
		WHERE b.created_at >= $1 AND b.created_at < $2
		ORDER BY b.created_at, b.id`, start, end)
	if err != nil {
		return nil, fmt.Errorf("reporting: bookings created between: %w", err)
	}
	defer rows.Close()
	return collectBookings(rows)
}

// AppointmentRow is a booking joined with its slot and doctor for listing
// on the dashboard.
type AppointmentRow struct {
	BookingID   int64  `json:"booking_id"`
	TokenNumber string `json:"token_number"`
	PatientName string `json:"patient_name"`
	Phone       string `json:"phone"`
	DoctorName  string `json:"doctor_name"`
	ClinicID    int64  `json:"clinic_id"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Status      string `json:"status"`
}

const appointmentSelect = `
	SELECT b.id, b.token_number, b.patient_name, b.phone, d.name,
	       b.clinic_id, s.date, s.start_time, s.end_time, b.status
	FROM bookings b
	JOIN slots s ON s.id = b.slot_id
	JOIN doctors d ON d.id = b.doctor_id`

// AppointmentsForDay lists the joined appointment rows for one calendar day.
func (r *StatsRepository) AppointmentsForDay(ctx context.Context, day time.Time) ([]AppointmentRow, error) {
	rows, err := r.db.Query(ctx, appointmentSelect+`
		WHERE s.date = $1
		ORDER BY s.start_time, b.id`, day)
	if err != nil {
		return nil, fmt.Errorf("reporting: appointments for day: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

// SearchAppointments finds appointments by token number, patient name or
// phone. The term matches case-insensitively anywhere in the field.
func (r *StatsRepository) SearchAppointments(ctx context.Context, term string) ([]AppointmentRow, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("reporting: search term required")
	}
	pattern := "%" + term + "%"
	rows, err := r.db.Query(ctx, appointmentSelect+`
		WHERE b.token_number ILIKE $1 OR b.patient_name ILIKE $1 OR b.phone ILIKE $1
		ORDER BY s.date DESC, s.start_time
		LIMIT 100`, pattern)
	if err != nil {
		return nil, fmt.Errorf("reporting: search appointments: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

// DoctorStats is one doctor's appointment and revenue summary.
type DoctorStats struct {
	DoctorID        int64  `json:"doctor_id"`
	DoctorName      string `json:"doctor_name"`
	ExperienceYears int64  `json:"experience_years"`
	FeeCents        int64  `json:"consultation_fee_cents"`
	Total           int64  `json:"total_appointments"`
	Completed       int64  `json:"completed"`
	Cancelled       int64  `json:"cancelled"`
	RevenueCents    int64  `json:"revenue_cents"`
}

// DoctorWiseStats aggregates bookings per doctor. Revenue counts Completed
// bookings only, priced at the doctor's consultation fee.
func (r *StatsRepository) DoctorWiseStats(ctx context.Context) ([]DoctorStats, error) {
	rows, err := r.db.Query(ctx, `
		SELECT d.id, d.name, d.experience_years,
		       CAST(ROUND(d.consultation_fee * 100) AS BIGINT) AS fee_cents,
		       COUNT(b.id) AS total,
		       COUNT(b.id) FILTER (WHERE b.status = 'Completed') AS completed,
		       COUNT(b.id) FILTER (WHERE b.status = 'Cancelled') AS cancelled,
		       CAST(ROUND(d.consultation_fee * 100) AS BIGINT)
		         * COUNT(b.id) FILTER (WHERE b.status = 'Completed') AS revenue_cents
		FROM doctors d
		LEFT JOIN bookings b ON b.doctor_id = d.id
		GROUP BY d.id, d.name, d.experience_years, d.consultation_fee
		ORDER BY d.name, d.id`)
	if err != nil {
		return nil, fmt.Errorf("reporting: doctor-wise stats: %w", err)
	}
	defer rows.Close()

	var out []DoctorStats
	for rows.Next() {
		var s DoctorStats
		if err := rows.Scan(&s.DoctorID, &s.DoctorName, &s.ExperienceYears, &s.FeeCents, &s.Total, &s.Completed, &s.Cancelled, &s.RevenueCents); err != nil {
			return nil, fmt.Errorf("reporting: scan doctor stats: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reporting: iterate doctor stats: %w", err)
	}
	return out, nil
}

// DoctorFees loads every doctor's consultation fee in cents, keyed by
// doctor id, for the revenue reducers.
func (r *StatsRepository) DoctorFees(ctx context.Context) (map[int64]int64, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, CAST(ROUND(consultation_fee * 100) AS BIGINT) FROM doctors`)
	if err != nil {
		return nil, fmt.Errorf("reporting: doctor fees: %w", err)
	}
	defer rows.Close()

	fees := make(map[int64]int64)
	for rows.Next() {
		var id, cents int64
		if err := rows.Scan(&id, &cents); err != nil {
			return nil, fmt.Errorf("reporting: scan fee: %w", err)
		}
		fees[id] = cents
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reporting: iterate fees: %w", err)
	}
	return fees, nil
}

func collectBookings(rows pgx.Rows) ([]scheduling.Booking, error) {
	var out []scheduling.Booking
	for rows.Next() {
		var b scheduling.Booking
		var status string
		if err := rows.Scan(
			&b.ID, &b.TokenNumber, &b.SlotID, &b.DoctorID, &b.ClinicID,
			&b.PatientName, &b.Email, &b.Phone, &b.Age, &b.Gender, &b.Reason,
			&b.Notes, &b.UserID, &status, &b.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("reporting: scan booking: %w", err)
		}
		b.Status = scheduling.BookingStatus(status)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reporting: iterate bookings: %w", err)
	}
	return out, nil
}

func collectAppointments(rows pgx.Rows) ([]AppointmentRow, error) {
	var out []AppointmentRow
	for rows.Next() {
		var a AppointmentRow
		var day time.Time
		if err := rows.Scan(
			&a.BookingID, &a.TokenNumber, &a.PatientName, &a.Phone,
			&a.DoctorName, &a.ClinicID, &day, &a.StartTime, &a.EndTime, &a.Status,
		); err != nil {
			return nil, fmt.Errorf("reporting: scan appointment: %w", err)
		}
		a.Date = day.UTC().Format("2006-01-02")
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reporting: iterate appointments: %w", err)
	}
	return out, nil
}
