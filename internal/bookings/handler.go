package bookings

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	httpmiddleware "github.com/medidesk/medidesk-platform/internal/http/middleware"
	"github.com/medidesk/medidesk-platform/internal/scheduling"
	"github.com/medidesk/medidesk-platform/pkg/logging"
)

// Handler handles HTTP requests for token appointments.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a new bookings handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Create handles POST /token-appointments. The route is public: walk-in
// patients book without an account, and an authenticated caller's user id is
// attached so they can cancel later.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req scheduling.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	var userID int64
	if claims, ok := httpmiddleware.ClaimsFromContext(r.Context()); ok {
		userID = claims.UserID
	}

	booking, err := h.service.CreateBooking(r.Context(), req, userID)
	if err != nil {
		h.writeCreateError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(booking)
}

func (h *Handler) writeCreateError(w http.ResponseWriter, err error) {
	var overbooked *scheduling.OverbookedError
	switch {
	case errors.As(err, &overbooked):
		body, _ := json.Marshal(map[string]any{
			"error":            "slot is fully booked",
			"slot_id":          overbooked.SlotID,
			"current_bookings": overbooked.CurrentBookings,
			"max_patients":     overbooked.MaxPatients,
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write(body)
	case errors.Is(err, scheduling.ErrSlotNotFound):
		http.Error(w, `{"error":"slot not found"}`, http.StatusNotFound)
	case errors.Is(err, ErrClinicScope):
		http.Error(w, `{"error":"slot belongs to another clinic"}`, http.StatusBadRequest)
	case errors.Is(err, scheduling.ErrMissingSlot),
		errors.Is(err, scheduling.ErrMissingPatientName),
		errors.Is(err, scheduling.ErrMissingContact),
		errors.Is(err, scheduling.ErrInvalidAge):
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
	default:
		h.logger.Error("failed to create booking", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
	}
}

// Get handles GET /token-appointments/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, `{"error":"invalid booking id"}`, http.StatusBadRequest)
		return
	}

	booking, err := h.service.GetBooking(r.Context(), id)
	if err != nil {
		if errors.Is(err, scheduling.ErrBookingNotFound) {
			http.Error(w, `{"error":"booking not found"}`, http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load booking", "error", err, "booking_id", id)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(booking)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /token-appointments/{id}/status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, `{"error":"invalid booking id"}`, http.StatusBadRequest)
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	to, ok := scheduling.ParseBookingStatus(req.Status)
	if !ok {
		http.Error(w, `{"error":"unknown booking status"}`, http.StatusBadRequest)
		return
	}

	claims, ok := httpmiddleware.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"missing auth context"}`, http.StatusUnauthorized)
		return
	}
	role, _ := scheduling.ParseRole(claims.Role)

	booking, err := h.service.UpdateStatus(r.Context(), id, to, role, claims.UserID)
	if err != nil {
		h.writeUpdateError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(booking)
}

func (h *Handler) writeUpdateError(w http.ResponseWriter, err error) {
	var invalid *scheduling.InvalidTransitionError
	var denied *scheduling.RoleDeniedError
	switch {
	case errors.Is(err, scheduling.ErrBookingNotFound):
		http.Error(w, `{"error":"booking not found"}`, http.StatusNotFound)
	case errors.As(err, &invalid):
		body, _ := json.Marshal(map[string]string{
			"error": invalid.Error(),
			"from":  invalid.From,
			"to":    invalid.To,
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write(body)
	case errors.As(err, &denied):
		http.Error(w, `{"error":"`+denied.Error()+`"}`, http.StatusForbidden)
	default:
		h.logger.Error("failed to update booking status", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
	}
}
