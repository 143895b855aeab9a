package scheduling

import (
	"strings"
	"time"
)

// Booking is a patient reservation against exactly one slot. TokenNumber is
// the human-facing identifier shown at the clinic; it is sequenced per
// clinic per day and is distinct from the database id.
type Booking struct {
	ID          int64         `json:"id"`
	TokenNumber string        `json:"token_number"`
	SlotID      int64         `json:"slot_id"`
	DoctorID    int64         `json:"doctor_id"`
	ClinicID    int64         `json:"clinic_id"`
	PatientName string        `json:"patient_name"`
	Email       string        `json:"email"`
	Phone       string        `json:"phone"`
	Age         int           `json:"age"`
	Gender      string        `json:"gender"`
	Reason      string        `json:"reason"`
	Notes       string        `json:"notes,omitempty"`
	UserID      int64         `json:"user_id,omitempty"` // creator account, 0 for walk-ins
	Status      BookingStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}

// CreateBookingRequest carries the patient details for a new booking.
type CreateBookingRequest struct {
	SlotID      int64  `json:"slot_id"`
	PatientName string `json:"patient_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Age         int    `json:"age"`
	Gender      string `json:"gender"`
	Reason      string `json:"reason"`
	Notes       string `json:"notes"`
}

// Validate checks the request before it reaches the repository.
func (r *CreateBookingRequest) Validate() error {
	if r.SlotID <= 0 {
		return ErrMissingSlot
	}
	if strings.TrimSpace(r.PatientName) == "" {
		return ErrMissingPatientName
	}
	if strings.TrimSpace(r.Email) == "" && strings.TrimSpace(r.Phone) == "" {
		return ErrMissingContact
	}
	if r.Age < 0 || r.Age > 150 {
		return ErrInvalidAge
	}
	return nil
}
