package notify

import (
	"context"
	"fmt"

	"github.com/medidesk/medidesk-platform/internal/scheduling"
	"github.com/medidesk/medidesk-platform/pkg/logging"
)

// Service sends patient-facing booking notifications. Delivery is best
// effort: a failed email never fails the booking, it only logs.
type Service struct {
	email  EmailSender
	logger *logging.Logger
}

// NewService creates a notification service. A nil sender disables email.
func NewService(email EmailSender, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, logger: logger}
}

// BookingCreated sends the token confirmation after a booking is made.
func (s *Service) BookingCreated(ctx context.Context, b *scheduling.Booking) {
	if b == nil || b.Email == "" {
		return
	}
	msg := EmailMessage{
		To:      b.Email,
		ToName:  b.PatientName,
		Subject: fmt.Sprintf("Your appointment token %s", b.TokenNumber),
		Body: fmt.Sprintf(
			"Hello %s,\n\nYour appointment is registered. Please quote token %s at the clinic desk.\n\nStatus: %s\n",
			b.PatientName, b.TokenNumber, b.Status,
		),
	}
	s.deliver(ctx, "booking confirmation", b, msg)
}

// BookingCancelled tells the patient their booking was cancelled.
func (s *Service) BookingCancelled(ctx context.Context, b *scheduling.Booking) {
	if b == nil || b.Email == "" {
		return
	}
	msg := EmailMessage{
		To:      b.Email,
		ToName:  b.PatientName,
		Subject: fmt.Sprintf("Appointment %s cancelled", b.TokenNumber),
		Body: fmt.Sprintf(
			"Hello %s,\n\nYour appointment with token %s has been cancelled. You can book a new slot at any time.\n",
			b.PatientName, b.TokenNumber,
		),
	}
	s.deliver(ctx, "booking cancellation", b, msg)
}

func (s *Service) deliver(ctx context.Context, kind string, b *scheduling.Booking, msg EmailMessage) {
	if s.email == nil {
		s.logger.Debug("email disabled, skipping notification", "kind", kind, "booking_id", b.ID)
		return
	}
	if err := s.email.Send(ctx, msg); err != nil {
		s.logger.Error("failed to send notification", "kind", kind, "error", err, "booking_id", b.ID)
		return
	}
	s.logger.Info("notification sent", "kind", kind, "booking_id", b.ID, "token_number", b.TokenNumber)
}
