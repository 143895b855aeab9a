package slots

import (
	"errors"
	"fmt"
	"time"

	"github.com/medidesk/medidesk-platform/internal/scheduling"
)

var (
	// ErrInvalidSchedule is returned when a schedule request cannot be
	// expanded into at least one slot.
	ErrInvalidSchedule = errors.New("schedule window does not fit any slot")

	// ErrMissingDoctor is returned when a schedule request has no doctor.
	ErrMissingDoctor = errors.New("doctor_id is required")

	// ErrMissingClinic is returned when a schedule request has no clinic.
	ErrMissingClinic = errors.New("clinic_id is required")
)

// ListFilter narrows slot listings. Zero values mean "no filter".
type ListFilter struct {
	DoctorID int64
	ClinicID int64
	Date     time.Time // calendar day, zero means any
}

// CreateScheduleRequest describes a doctor's working window to be cut into
// bookable slots of equal duration.
type CreateScheduleRequest struct {
	DoctorID        int64  `json:"doctor_id"`
	ClinicID        int64  `json:"clinic_id"`
	Date            string `json:"date"`       // "2006-01-02"
	StartTime       string `json:"start_time"` // "15:04"
	EndTime         string `json:"end_time"`
	DurationMinutes int    `json:"duration_minutes"`
	MaxPatients     int    `json:"max_patients"`
}

// ExpandSchedule cuts the request window into consecutive slots. The last
// partial window is dropped rather than shortened, matching how clinics
// publish fixed-length consultation slots.
func ExpandSchedule(req CreateScheduleRequest) ([]scheduling.Slot, error) {
	if req.DoctorID <= 0 {
		return nil, ErrMissingDoctor
	}
	if req.ClinicID <= 0 {
		return nil, ErrMissingClinic
	}
	day, err := time.ParseInLocation("2006-01-02", req.Date, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("slots: invalid date %q: %w", req.Date, err)
	}
	start, err := time.ParseInLocation("15:04", req.StartTime, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("slots: invalid start_time %q: %w", req.StartTime, err)
	}
	end, err := time.ParseInLocation("15:04", req.EndTime, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("slots: invalid end_time %q: %w", req.EndTime, err)
	}
	if req.DurationMinutes <= 0 {
		return nil, fmt.Errorf("slots: duration_minutes must be positive")
	}
	if req.MaxPatients <= 0 {
		return nil, fmt.Errorf("slots: max_patients must be positive")
	}
	if !end.After(start) {
		return nil, ErrInvalidSchedule
	}

	step := time.Duration(req.DurationMinutes) * time.Minute
	var out []scheduling.Slot
	for cur := start; !cur.Add(step).After(end); cur = cur.Add(step) {
		out = append(out, scheduling.Slot{
			DoctorID:        req.DoctorID,
			ClinicID:        req.ClinicID,
			Date:            day,
			StartTime:       cur.Format("15:04"),
			EndTime:         cur.Add(step).Format("15:04"),
			DurationMinutes: req.DurationMinutes,
			MaxPatients:     req.MaxPatients,
			Status:          scheduling.SlotAvailable,
		})
	}
	if len(out) == 0 {
		return nil, ErrInvalidSchedule
	}
	return out, nil
}
