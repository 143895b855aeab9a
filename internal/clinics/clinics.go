package clinics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medidesk/medidesk-platform/pkg/logging"
)

// ErrClinicNotFound is returned when a clinic does not exist.
var ErrClinicNotFound = errors.New("clinic not found")

// Clinic is one physical location appointments are booked against.
type Clinic struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type clinicsDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository provides persistence for clinics.
type Repository struct {
	db clinicsDB
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("clinics: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for testing.
func NewRepositoryWithDB(db clinicsDB) *Repository {
	return &Repository{db: db}
}

const clinicColumns = `id, name, address, city, phone, email, created_at`

// List returns all clinics ordered by name.
func (r *Repository) List(ctx context.Context) ([]Clinic, error) {
	rows, err := r.db.Query(ctx, `SELECT `+clinicColumns+` FROM clinics ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("clinics: list: %w", err)
	}
	defer rows.Close()

	var out []Clinic
	for rows.Next() {
		var c Clinic
		if err := rows.Scan(&c.ID, &c.Name, &c.Address, &c.City, &c.Phone, &c.Email, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("clinics: scan: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("clinics: iterate: %w", err)
	}
	return out, nil
}

// GetByID loads one clinic.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Clinic, error) {
	var c Clinic
	err := r.db.QueryRow(ctx, `SELECT `+clinicColumns+` FROM clinics WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Address, &c.City, &c.Phone, &c.Email, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClinicNotFound
		}
		return nil, fmt.Errorf("clinics: get: %w", err)
	}
	return &c, nil
}

// Handler serves the clinic directory.
type Handler struct {
	repo   *Repository
	logger *logging.Logger
}

// NewHandler creates a clinics handler.
func NewHandler(repo *Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// List handles GET /clinics.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	found, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list clinics", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	if found == nil {
		found = []Clinic{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"clinics": found, "count": len(found)})
}

// Get handles GET /clinics/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, `{"error":"invalid clinic id"}`, http.StatusBadRequest)
		return
	}
	c, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrClinicNotFound) {
			http.Error(w, `{"error":"clinic not found"}`, http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load clinic", "error", err, "clinic_id", id)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(c)
}
