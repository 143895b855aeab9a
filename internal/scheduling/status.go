package scheduling

// SlotStatus is the lifecycle label of a slot. The set is closed; handlers
// must reject anything outside it instead of storing free-form strings.
type SlotStatus string

const (
	SlotAvailable SlotStatus = "Available"
	SlotBooked    SlotStatus = "Booked"
	SlotCompleted SlotStatus = "Completed"
	SlotCancelled SlotStatus = "Cancelled"
)

// BookingStatus is the lifecycle label of a token appointment.
type BookingStatus string

const (
	BookingPending   BookingStatus = "Pending"
	BookingConfirmed BookingStatus = "Confirmed"
	BookingCompleted BookingStatus = "Completed"
	BookingCancelled BookingStatus = "Cancelled"
	BookingNoShow    BookingStatus = "No Show"
)

// Role gates which status transitions a caller may request.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleDoctor    Role = "doctor"
	RoleAssistant Role = "assistant"
	RolePatient   Role = "patient"
)

// SlotStatuses lists every valid slot status.
func SlotStatuses() []SlotStatus {
	return []SlotStatus{SlotAvailable, SlotBooked, SlotCompleted, SlotCancelled}
}

// BookingStatuses lists every valid booking status.
func BookingStatuses() []BookingStatus {
	return []BookingStatus{BookingPending, BookingConfirmed, BookingCompleted, BookingCancelled, BookingNoShow}
}

// ParseSlotStatus validates a raw status string.
func ParseSlotStatus(raw string) (SlotStatus, bool) {
	for _, s := range SlotStatuses() {
		if string(s) == raw {
			return s, true
		}
	}
	return "", false
}

// ParseBookingStatus validates a raw status string.
func ParseBookingStatus(raw string) (BookingStatus, bool) {
	for _, s := range BookingStatuses() {
		if string(s) == raw {
			return s, true
		}
	}
	return "", false
}

// ParseRole validates a raw role string.
func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleAdmin, RoleDoctor, RoleAssistant, RolePatient:
		return Role(raw), true
	}
	return "", false
}

// IsStaff reports whether the role may administer slots and bookings.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleDoctor || r == RoleAssistant
}
