package doctors

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/medidesk/medidesk-platform/pkg/logging"
)

// Handler serves the doctor and assistant directory.
type Handler struct {
	repo   *Repository
	logger *logging.Logger
}

// NewHandler creates a directory handler.
func NewHandler(repo *Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// ListDoctors handles GET /doctors. Optional clinic_id query param.
func (h *Handler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := optionalID(w, r, "clinic_id")
	if !ok {
		return
	}
	found, err := h.repo.ListDoctors(r.Context(), clinicID)
	if err != nil {
		h.logger.Error("failed to list doctors", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	if found == nil {
		found = []Doctor{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"doctors": found, "count": len(found)})
}

// GetDoctor handles GET /doctors/{id}.
func (h *Handler) GetDoctor(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, `{"error":"invalid doctor id"}`, http.StatusBadRequest)
		return
	}
	d, err := h.repo.GetDoctor(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			http.Error(w, `{"error":"doctor not found"}`, http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load doctor", "error", err, "doctor_id", id)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// CreateDoctor handles POST /doctors.
func (h *Handler) CreateDoctor(w http.ResponseWriter, r *http.Request) {
	var req CreateDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}
	d, err := h.repo.CreateDoctor(r.Context(), req)
	if err != nil {
		h.logger.Error("failed to create doctor", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	h.logger.Info("doctor created", "doctor_id", d.ID, "clinic_id", d.ClinicID)
	writeJSON(w, http.StatusCreated, d)
}

// DoctorExists handles GET /doctors/profile/exists?user_id=. The answer is
// an explicit boolean body; a missing profile is not an HTTP error.
func (h *Handler) DoctorExists(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		http.Error(w, `{"error":"user_id required"}`, http.StatusBadRequest)
		return
	}
	exists, err := h.repo.DoctorExistsByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to check doctor profile", "error", err, "user_id", userID)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

// ListAssistants handles GET /assistants. Optional clinic_id query param.
func (h *Handler) ListAssistants(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := optionalID(w, r, "clinic_id")
	if !ok {
		return
	}
	found, err := h.repo.ListAssistants(r.Context(), clinicID)
	if err != nil {
		h.logger.Error("failed to list assistants", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	if found == nil {
		found = []Assistant{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"assistants": found, "count": len(found)})
}

// GetAssistant handles GET /assistants/{id}.
func (h *Handler) GetAssistant(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, `{"error":"invalid assistant id"}`, http.StatusBadRequest)
		return
	}
	a, err := h.repo.GetAssistant(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrAssistantNotFound) {
			http.Error(w, `{"error":"assistant not found"}`, http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load assistant", "error", err, "assistant_id", id)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// CreateAssistant handles POST /assistants.
func (h *Handler) CreateAssistant(w http.ResponseWriter, r *http.Request) {
	var req CreateAssistantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}
	a, err := h.repo.CreateAssistant(r.Context(), req)
	if err != nil {
		h.logger.Error("failed to create assistant", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	h.logger.Info("assistant created", "assistant_id", a.ID, "clinic_id", a.ClinicID)
	writeJSON(w, http.StatusCreated, a)
}

// AssistantExists handles GET /assistants/profile/exists?user_id=.
func (h *Handler) AssistantExists(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		http.Error(w, `{"error":"user_id required"}`, http.StatusBadRequest)
		return
	}
	exists, err := h.repo.AssistantExistsByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to check assistant profile", "error", err, "user_id", userID)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

func optionalID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, `{"error":"invalid `+name+`"}`, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
