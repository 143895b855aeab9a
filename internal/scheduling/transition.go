package scheduling

// Allowed transitions for the two state machines. Completed, Cancelled and
// No Show have no outgoing edges.
var slotTransitions = map[SlotStatus][]SlotStatus{
	SlotAvailable: {SlotBooked, SlotCancelled},
	SlotBooked:    {SlotCompleted, SlotCancelled},
}

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled, BookingNoShow},
	BookingConfirmed: {BookingCompleted, BookingCancelled, BookingNoShow},
}

// ValidateSlotTransition checks that a slot may move from one status to
// another and that the caller's role is allowed to request it. Slot status
// is staff-settable only.
func ValidateSlotTransition(from, to SlotStatus, role Role) error {
	if !role.IsStaff() {
		return &RoleDeniedError{Role: role, Action: "change slot status"}
	}
	return validateSlotEdge(from, to)
}

func validateSlotEdge(from, to SlotStatus) error {
	for _, next := range slotTransitions[from] {
		if next == to {
			return nil
		}
	}
	return &InvalidTransitionError{Entity: "slot", From: string(from), To: string(to)}
}

// ValidateBookingTransition checks a booking status change. Staff roles may
// request any edge in the table; a patient may only cancel, and only their
// own booking.
func ValidateBookingTransition(from, to BookingStatus, actor Role, ownBooking bool) error {
	if !actor.IsStaff() {
		if actor != RolePatient {
			return &RoleDeniedError{Role: actor, Action: "change booking status"}
		}
		if to != BookingCancelled || !ownBooking {
			return &RoleDeniedError{Role: actor, Action: "change booking status"}
		}
	}
	return validateBookingEdge(from, to)
}

func validateBookingEdge(from, to BookingStatus) error {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return nil
		}
	}
	return &InvalidTransitionError{Entity: "booking", From: string(from), To: string(to)}
}
