package bookings

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/medidesk/medidesk-platform/internal/observability/metrics"
	"github.com/medidesk/medidesk-platform/internal/scheduling"
	"github.com/medidesk/medidesk-platform/pkg/logging"
)

var bookingsTracer = otel.Tracer("medidesk.internal.bookings")

// Notifier delivers patient-facing messages about a booking. The notify
// package provides the production implementation; a nil Notifier disables
// delivery.
type Notifier interface {
	BookingCreated(ctx context.Context, b *scheduling.Booking)
	BookingCancelled(ctx context.Context, b *scheduling.Booking)
}

// Service owns the token appointment flow: occupancy-checked creation,
// status transitions, and the notifications both trigger.
type Service struct {
	repo     *Repository
	metrics  *metrics.BookingMetrics
	notifier Notifier
	logger   *logging.Logger
}

// NewService constructs a bookings service.
func NewService(repo *Repository, m *metrics.BookingMetrics, notifier Notifier, logger *logging.Logger) *Service {
	if repo == nil {
		panic("bookings: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, metrics: m, notifier: notifier, logger: logger}
}

// CreateBooking validates the request and books the slot. The repository is
// the arbiter of the last seat; a full slot surfaces as *OverbookedError.
func (s *Service) CreateBooking(ctx context.Context, req scheduling.CreateBookingRequest, userID int64) (*scheduling.Booking, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.create")
	defer span.End()
	span.SetAttributes(attribute.Int64("medidesk.slot_id", req.SlotID))

	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	booking, err := s.repo.Create(ctx, req, userID)
	s.metrics.ObserveBookingLatency(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		var overbooked *scheduling.OverbookedError
		if errors.As(err, &overbooked) {
			s.metrics.ObserveOverbooked()
			s.logger.Info("booking rejected, slot full",
				"slot_id", overbooked.SlotID,
				"current_bookings", overbooked.CurrentBookings,
				"max_patients", overbooked.MaxPatients,
			)
		}
		return nil, err
	}

	s.metrics.ObserveBookingCreated(string(booking.Status))
	s.logger.Info("booking created",
		"booking_id", booking.ID,
		"token_number", booking.TokenNumber,
		"slot_id", booking.SlotID,
		"clinic_id", booking.ClinicID,
	)
	if s.notifier != nil {
		s.notifier.BookingCreated(ctx, booking)
	}
	return booking, nil
}

// GetBooking loads one booking.
func (s *Service) GetBooking(ctx context.Context, id int64) (*scheduling.Booking, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateStatus applies a transition-table-validated status change. Patients
// may only cancel a booking they created themselves; staff roles move
// bookings through the full table.
func (s *Service) UpdateStatus(ctx context.Context, id int64, to scheduling.BookingStatus, actor scheduling.Role, actorUserID int64) (*scheduling.Booking, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.update_status")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("medidesk.booking_id", id),
		attribute.String("medidesk.to_status", string(to)),
	)

	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	own := booking.UserID != 0 && booking.UserID == actorUserID
	if err := scheduling.ValidateBookingTransition(booking.Status, to, actor, own); err != nil {
		var invalid *scheduling.InvalidTransitionError
		if errors.As(err, &invalid) {
			s.metrics.ObserveInvalidTransition("booking")
		}
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, id, booking.Status, to); err != nil {
		span.RecordError(err)
		return nil, err
	}

	if to == scheduling.BookingCancelled {
		if err := s.repo.ReleaseSeat(ctx, booking.SlotID); err != nil {
			// The booking is already cancelled; log and carry on rather
			// than strand the caller.
			s.logger.Error("failed to release slot seat", "error", err, "slot_id", booking.SlotID)
		}
		if s.notifier != nil {
			s.notifier.BookingCancelled(ctx, booking)
		}
	}

	s.logger.Info("booking status updated",
		"booking_id", id,
		"from", booking.Status,
		"to", to,
		"role", actor,
	)
	booking.Status = to
	return booking, nil
}
