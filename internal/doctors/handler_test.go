package doctors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewHandler(NewRepository(db), nil), mock
}

func directoryRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/doctors", h.ListDoctors)
	r.Get("/doctors/profile/exists", h.DoctorExists)
	r.Get("/doctors/{id}", h.GetDoctor)
	r.Post("/doctors", h.CreateDoctor)
	r.Get("/assistants", h.ListAssistants)
	r.Get("/assistants/profile/exists", h.AssistantExists)
	r.Get("/assistants/{id}", h.GetAssistant)
	r.Post("/assistants", h.CreateAssistant)
	return r
}

func TestHandler_DoctorExists(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM doctors WHERE user_id = \$1\)`).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	req := httptest.NewRequest(http.MethodGet, "/doctors/profile/exists?user_id=10", nil)
	rec := httptest.NewRecorder()
	directoryRouter(h).ServeHTTP(rec, req)

	// A missing profile is still a 200; the boolean carries the answer.
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	exists, ok := resp["exists"]
	assert.True(t, ok, "body should always carry the exists key")
	assert.False(t, exists)
}

func TestHandler_DoctorExists_MissingUser(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/doctors/profile/exists", nil)
	rec := httptest.NewRecorder()
	directoryRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_GetDoctor_NotFound(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectQuery(`SELECT .+ FROM doctors WHERE id = \$1`).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(doctorTestColumns))

	req := httptest.NewRequest(http.MethodGet, "/doctors/99", nil)
	rec := httptest.NewRecorder()
	directoryRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_CreateDoctor(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectQuery(`INSERT INTO doctors`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), time.Now().UTC()))

	body := `{"user_id":10,"clinic_id":3,"name":"Dr. Iyer","specialization":"Cardiology","experience_years":12,"consultation_fee":800}`
	req := httptest.NewRequest(http.MethodPost, "/doctors", strings.NewReader(body))
	rec := httptest.NewRecorder()
	directoryRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var d Doctor
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.Equal(t, int64(7), d.ID)
}

func TestHandler_CreateDoctor_Validation(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"clinic_id":3}`},
		{"missing clinic", `{"name":"Dr. Iyer"}`},
		{"negative fee", `{"name":"Dr. Iyer","clinic_id":3,"consultation_fee":-10}`},
		{"negative experience", `{"name":"Dr. Iyer","clinic_id":3,"experience_years":-1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/doctors", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			directoryRouter(h).ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestHandler_ListDoctors_EmptyIsArray(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectQuery(`SELECT .+ FROM doctors ORDER BY name, id`).
		WillReturnRows(sqlmock.NewRows(doctorTestColumns))

	req := httptest.NewRequest(http.MethodGet, "/doctors", nil)
	rec := httptest.NewRecorder()
	directoryRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"doctors":[]`)
}

func TestHandler_AssistantExists(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM assistants WHERE user_id = \$1\)`).
		WithArgs(int64(21)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	req := httptest.NewRequest(http.MethodGet, "/assistants/profile/exists?user_id=21", nil)
	rec := httptest.NewRecorder()
	directoryRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp["exists"])
}
