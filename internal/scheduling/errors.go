package scheduling

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownStatus is returned when a raw status string is outside the
	// closed status set.
	ErrUnknownStatus = errors.New("unknown status")

	// ErrSlotNotFound is returned when a slot does not exist.
	ErrSlotNotFound = errors.New("slot not found")

	// ErrBookingNotFound is returned when a booking does not exist.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrMissingSlot is returned when a booking request has no slot id.
	ErrMissingSlot = errors.New("slot_id is required")

	// ErrMissingPatientName is returned when the patient name is blank.
	ErrMissingPatientName = errors.New("patient_name is required")

	// ErrMissingContact is returned when both email and phone are missing.
	ErrMissingContact = errors.New("either email or phone is required")

	// ErrInvalidAge is returned when the patient age is out of range.
	ErrInvalidAge = errors.New("age must be between 0 and 150")
)

// OverbookedError is returned when a booking is applied to a slot that
// cannot accept it. It names the slot and its occupancy so handlers can
// render a useful conflict message.
type OverbookedError struct {
	SlotID          int64
	CurrentBookings int
	MaxPatients     int
}

func (e *OverbookedError) Error() string {
	return fmt.Sprintf("slot %d cannot accept another booking (%d/%d booked)",
		e.SlotID, e.CurrentBookings, e.MaxPatients)
}

// InvalidTransitionError is returned when a requested status change is not
// reachable from the current state.
type InvalidTransitionError struct {
	Entity string // "slot" or "booking"
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s status cannot change from %q to %q", e.Entity, e.From, e.To)
}

// RoleDeniedError is returned when a role is not permitted to request a
// transition that would otherwise be valid.
type RoleDeniedError struct {
	Role   Role
	Action string
}

func (e *RoleDeniedError) Error() string {
	return fmt.Sprintf("role %q may not %s", e.Role, e.Action)
}
