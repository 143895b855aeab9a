package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medidesk/medidesk-platform/internal/bookings"
	"github.com/medidesk/medidesk-platform/internal/clinics"
	"github.com/medidesk/medidesk-platform/internal/doctors"
	httpmiddleware "github.com/medidesk/medidesk-platform/internal/http/middleware"
	"github.com/medidesk/medidesk-platform/internal/observability/metrics"
	"github.com/medidesk/medidesk-platform/internal/reporting"
	"github.com/medidesk/medidesk-platform/internal/slots"
)

const testSecret = "router-test-secret"

func signToken(t *testing.T, userID int64, role string) string {
	t.Helper()
	claims := &httpmiddleware.AuthClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	reg := prometheus.NewRegistry()
	m := metrics.NewBookingMetrics(reg)

	bookingRepo := bookings.NewRepositoryWithDB(pool, bookings.NewTokenCounter(nil, 0, nil, nil))
	bookingSvc := bookings.NewService(bookingRepo, m, nil, nil)

	return New(&Config{
		SlotsHandler:     slots.NewHandler(slots.NewRepositoryWithDB(pool), m, nil),
		BookingsHandler:  bookings.NewHandler(bookingSvc, nil),
		DirectoryHandler: doctors.NewHandler(doctors.NewRepository(db), nil),
		ClinicsHandler:   clinics.NewHandler(clinics.NewRepositoryWithDB(pool), nil),
		Dashboard:        reporting.NewDashboardHandler(reporting.NewStatsRepositoryWithDB(pool), reg, nil),
		MetricsHandler:   promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		AuthJWTSecret:    testSecret,
	})
}

func TestRouter_Health(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestRouter_Metrics(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_StaffRoutesRequireAuth(t *testing.T) {
	r := newTestRouter(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/doctors/dashboard/create-schedule"},
		{http.MethodPatch, "/appointments/1/status"},
		{http.MethodGet, "/global-dashboard/stats"},
		{http.MethodPatch, "/token-appointments/1/status"},
		{http.MethodPost, "/doctors"},
	}
	for _, p := range paths {
		req := httptest.NewRequest(p.method, p.path, nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", p.method, p.path)
	}
}

func TestRouter_PatientCannotReachStaffRoutes(t *testing.T) {
	r := newTestRouter(t)
	token := signToken(t, 42, "patient")

	req := httptest.NewRequest(http.MethodGet, "/global-dashboard/stats", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_DoctorRoleOnAdminRoute(t *testing.T) {
	r := newTestRouter(t)
	token := signToken(t, 7, "doctor")

	req := httptest.NewRequest(http.MethodPost, "/doctors", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_BadClinicHeaderRejected(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/token-appointments", nil)
	req.Header.Set("X-Clinic-Id", "not-a-number")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
