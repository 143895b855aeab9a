package scheduling

import (
	"time"
)

// Slot is a bookable time window for a doctor at a clinic. Occupancy is
// tracked by CurrentBookings against MaxPatients; fullness is always derived
// from the counter, never from the Status label alone.
type Slot struct {
	ID              int64      `json:"id"`
	DoctorID        int64      `json:"doctor_id"`
	ClinicID        int64      `json:"clinic_id"`
	Date            time.Time  `json:"date"`
	StartTime       string     `json:"start_time"` // "15:04"
	EndTime         string     `json:"end_time"`
	DurationMinutes int        `json:"duration_minutes"`
	MaxPatients     int        `json:"max_patients"`
	CurrentBookings int        `json:"current_bookings"`
	Status          SlotStatus `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
}

// IsFull reports whether the slot has no remaining capacity. A slot with a
// non-positive capacity is treated as full so malformed rows are never
// bookable.
func (s Slot) IsFull() bool {
	if s.MaxPatients <= 0 {
		return true
	}
	return s.CurrentBookings >= s.MaxPatients
}

// SameDay reports whether the slot falls on the given calendar day (UTC).
func (s Slot) SameDay(day time.Time) bool {
	y1, m1, d1 := s.Date.UTC().Date()
	y2, m2, d2 := day.UTC().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// IsBookable reports whether the slot accepts a booking on targetDate.
// Pure; shared by the availability listing and the booking path so both
// agree on one fullness semantics.
func IsBookable(s Slot, targetDate time.Time) bool {
	if !s.SameDay(targetDate) {
		return false
	}
	if s.Status != SlotAvailable {
		return false
	}
	return !s.IsFull()
}

// ApplyBooking returns a copy of the slot with one more booking recorded.
// When the new count reaches capacity the status moves to Booked here, so
// call sites never need to compare counters themselves. The input slot is
// never mutated; on failure it is returned unchanged alongside an
// *OverbookedError.
func ApplyBooking(s Slot) (Slot, error) {
	if !IsBookable(s, s.Date) {
		return s, &OverbookedError{
			SlotID:          s.ID,
			CurrentBookings: s.CurrentBookings,
			MaxPatients:     s.MaxPatients,
		}
	}
	s.CurrentBookings++
	if s.CurrentBookings >= s.MaxPatients {
		s.Status = SlotBooked
	}
	return s, nil
}

// FilterBookable returns the subset of slots bookable on targetDate,
// preserving order.
func FilterBookable(slots []Slot, targetDate time.Time) []Slot {
	out := make([]Slot, 0, len(slots))
	for _, s := range slots {
		if IsBookable(s, targetDate) {
			out = append(out, s)
		}
	}
	return out
}
