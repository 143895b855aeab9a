package slots

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	httpmiddleware "github.com/medidesk/medidesk-platform/internal/http/middleware"
	"github.com/medidesk/medidesk-platform/internal/observability/metrics"
	"github.com/medidesk/medidesk-platform/internal/scheduling"
	"github.com/medidesk/medidesk-platform/pkg/logging"
)

// Handler handles HTTP requests for slots.
type Handler struct {
	repo    *Repository
	metrics *metrics.BookingMetrics
	logger  *logging.Logger
}

// NewHandler creates a new slots handler.
func NewHandler(repo *Repository, m *metrics.BookingMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, metrics: m, logger: logger}
}

// List handles GET /appointments.
// Query params: doctor_id, clinic_id, date (2006-01-02), all optional.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}

	found, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list slots", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	writeSlots(w, found)
}

// ListAvailable handles GET /appointments/available.
// Query params: doctor_id (required), date (defaults to today UTC).
func (h *Handler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	doctorID, err := strconv.ParseInt(r.URL.Query().Get("doctor_id"), 10, 64)
	if err != nil || doctorID <= 0 {
		http.Error(w, `{"error":"doctor_id required"}`, http.StatusBadRequest)
		return
	}
	day := time.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		day, err = time.ParseInLocation("2006-01-02", raw, time.UTC)
		if err != nil {
			http.Error(w, `{"error":"invalid date, use 2006-01-02"}`, http.StatusBadRequest)
			return
		}
	}

	found, err := h.repo.ListAvailable(r.Context(), doctorID, day)
	if err != nil {
		h.logger.Error("failed to list available slots", "error", err, "doctor_id", doctorID)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	writeSlots(w, found)
}

// CreateScheduleResponse is returned after a schedule is expanded.
type CreateScheduleResponse struct {
	Slots []scheduling.Slot `json:"slots"`
	Count int               `json:"count"`
}

// CreateSchedule handles POST /doctors/dashboard/create-schedule.
func (h *Handler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req CreateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	batch, err := ExpandSchedule(req)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}

	created, err := h.repo.CreateBatch(r.Context(), batch)
	if err != nil {
		h.logger.Error("failed to create schedule", "error", err, "doctor_id", req.DoctorID)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	h.logger.Info("schedule created",
		"doctor_id", req.DoctorID,
		"clinic_id", req.ClinicID,
		"date", req.Date,
		"slots", len(created),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(CreateScheduleResponse{Slots: created, Count: len(created)})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /appointments/{id}/status. The transition
// table is enforced here, at the boundary where the change is requested.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, `{"error":"invalid slot id"}`, http.StatusBadRequest)
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	to, ok := scheduling.ParseSlotStatus(req.Status)
	if !ok {
		http.Error(w, `{"error":"unknown slot status"}`, http.StatusBadRequest)
		return
	}

	claims, ok := httpmiddleware.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"missing auth context"}`, http.StatusUnauthorized)
		return
	}
	role, _ := scheduling.ParseRole(claims.Role)

	slot, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, scheduling.ErrSlotNotFound) {
			http.Error(w, `{"error":"slot not found"}`, http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load slot", "error", err, "slot_id", id)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	if err := scheduling.ValidateSlotTransition(slot.Status, to, role); err != nil {
		writeTransitionError(w, h.metrics, h.logger, "slot", err)
		return
	}

	if err := h.repo.UpdateStatus(r.Context(), id, slot.Status, to); err != nil {
		if errors.Is(err, scheduling.ErrSlotNotFound) {
			// The row changed underneath us; the caller should re-fetch.
			http.Error(w, `{"error":"slot status changed concurrently"}`, http.StatusConflict)
			return
		}
		h.logger.Error("failed to update slot status", "error", err, "slot_id", id)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	h.logger.Info("slot status updated", "slot_id", id, "from", slot.Status, "to", to, "role", role)
	slot.Status = to
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(slot)
}

// writeTransitionError maps transition failures for both slot and booking
// handlers.
func writeTransitionError(w http.ResponseWriter, m *metrics.BookingMetrics, logger *logging.Logger, entity string, err error) {
	var invalid *scheduling.InvalidTransitionError
	var denied *scheduling.RoleDeniedError
	switch {
	case errors.As(err, &invalid):
		m.ObserveInvalidTransition(entity)
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
		logger.Error("unexpected transition error", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
	}
}

func writeSlots(w http.ResponseWriter, found []scheduling.Slot) {
	if found == nil {
		found = []scheduling.Slot{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"slots": found,
		"count": len(found),
	})
}

func parseListFilter(r *http.Request) (ListFilter, error) {
	q := r.URL.Query()
	var filter ListFilter
	if raw := q.Get("doctor_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return filter, errors.New("invalid doctor_id")
		}
		filter.DoctorID = id
	}
	if raw := q.Get("clinic_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return filter, errors.New("invalid clinic_id")
		}
		filter.ClinicID = id
	}
	if raw := q.Get("date"); raw != "" {
		day, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
		if err != nil {
			return filter, errors.New("invalid date, use 2006-01-02")
		}
		filter.Date = day
	}
	return filter, nil
}
