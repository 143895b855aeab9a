package reporting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medidesk/medidesk-platform/internal/observability/metrics"
	"github.com/medidesk/medidesk-platform/internal/scheduling"
)

var bookingTestColumns = []string{
	"id", "token_number", "slot_id", "doctor_id", "clinic_id",
	"patient_name", "email", "phone", "age", "gender", "reason", "notes",
	"user_id", "status", "created_at",
}

func bookingRow(id, doctorID int64, status string, createdAt time.Time) []any {
	return []any{
		id, "3-20260901-001", int64(5), doctorID, int64(3),
		"Asha Rao", "", "+91-9000000001", 34, "female", "follow-up", "",
		int64(0), status, createdAt,
	}
}

func TestStatsRepository_DoctorFees(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, CAST\(ROUND\(consultation_fee \* 100\) AS BIGINT\) FROM doctors`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "cents"}).
			AddRow(int64(7), int64(80000)).
			AddRow(int64(8), int64(50000)))

	repo := NewStatsRepositoryWithDB(mock)
	fees, err := repo.DoctorFees(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(80000), fees[7])
	assert.Equal(t, int64(50000), fees[8])
}

func TestStatsRepository_DoctorWiseStats(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT d.id, d.name, d.experience_years,`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "experience_years", "fee_cents", "total", "completed", "cancelled", "revenue_cents"}).
			AddRow(int64(7), "Dr. Iyer", int64(12), int64(80000), int64(10), int64(6), int64(2), int64(480000)).
			AddRow(int64(8), "Dr. Mehta", int64(3), int64(50000), int64(0), int64(0), int64(0), int64(0)))

	repo := NewStatsRepositoryWithDB(mock)
	stats, err := repo.DoctorWiseStats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, int64(480000), stats[0].RevenueCents)
	assert.Equal(t, int64(12), stats[0].ExperienceYears)
	assert.Equal(t, int64(0), stats[1].Total, "a doctor with no bookings still appears")
}

func TestDashboardHandler_DoctorWiseStats_Distributions(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT d.id, d.name, d.experience_years,`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "experience_years", "fee_cents", "total", "completed", "cancelled", "revenue_cents"}).
			AddRow(int64(7), "Dr. Iyer", int64(12), int64(80000), int64(10), int64(6), int64(2), int64(480000)).
			AddRow(int64(8), "Dr. Mehta", int64(3), int64(4000), int64(0), int64(0), int64(0), int64(0)).
			AddRow(int64(9), "Dr. Rao", int64(25), int64(25000), int64(1), int64(1), int64(0), int64(25000)))

	h := NewDashboardHandler(NewStatsRepositoryWithDB(mock), prometheus.NewRegistry(), nil)

	req := httptest.NewRequest(http.MethodGet, "/global-dashboard/doctor-wise-stats", nil)
	rec := httptest.NewRecorder()
	h.DoctorWiseStats(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got struct {
		Count                  int           `json:"count"`
		ExperienceDistribution []RangeBucket `json:"experience_distribution"`
		FeeDistribution        []RangeBucket `json:"fee_distribution"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))

	assert.Equal(t, 3, got.Count)
	require.Len(t, got.ExperienceDistribution, 4)
	assert.Equal(t, RangeBucket{Label: "0-5 years", Count: 1}, got.ExperienceDistribution[0])
	assert.Equal(t, RangeBucket{Label: "11-20 years", Count: 1}, got.ExperienceDistribution[2])
	assert.Equal(t, RangeBucket{Label: "20+ years", Count: 1}, got.ExperienceDistribution[3])
	require.Len(t, got.FeeDistribution, 4)
	assert.Equal(t, RangeBucket{Label: "under $50", Count: 1}, got.FeeDistribution[0])
	assert.Equal(t, RangeBucket{Label: "$200+", Count: 2}, got.FeeDistribution[3])
}

func TestDashboardHandler_Stats(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT b.id, b.token_number,`).
		WillReturnRows(pgxmock.NewRows(bookingTestColumns).
			AddRow(bookingRow(1, 7, "Completed", now)...).
			AddRow(bookingRow(2, 7, "Pending", now)...).
			AddRow(bookingRow(3, 8, "Cancelled", now)...))
	mock.ExpectQuery(`SELECT id, CAST\(ROUND\(consultation_fee \* 100\) AS BIGINT\) FROM doctors`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "cents"}).
			AddRow(int64(7), int64(80000)).
			AddRow(int64(8), int64(50000)))

	h := NewDashboardHandler(NewStatsRepositoryWithDB(mock), prometheus.NewRegistry(), nil)

	req := httptest.NewRequest(http.MethodGet, "/global-dashboard/stats", nil)
	rec := httptest.NewRecorder()
	h.Stats(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got GlobalStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))

	assert.Equal(t, 3, got.TotalAppointments)
	assert.Equal(t, 1, got.StatusCounts[scheduling.BookingCompleted])
	assert.Equal(t, 1, got.StatusCounts[scheduling.BookingCancelled])
	assert.Equal(t, 0, got.StatusCounts[scheduling.BookingNoShow], "every status is present")
	// Real revenue counts only the completed booking; the estimate adds the
	// pending one but never the cancelled one.
	assert.Equal(t, int64(80000), got.RevenueCents)
	assert.Equal(t, int64(160000), got.EstimatedRevenueCents)
	assert.NotEmpty(t, got.EstimatedNote)
}

func TestDashboardHandler_AppointmentsByDateRange_ZeroFills(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`WHERE b.created_at >= \$1 AND b.created_at < \$2`).
		WillReturnRows(pgxmock.NewRows(bookingTestColumns).
			AddRow(bookingRow(1, 7, "Confirmed", now)...))

	h := NewDashboardHandler(NewStatsRepositoryWithDB(mock), prometheus.NewRegistry(), nil)

	req := httptest.NewRequest(http.MethodGet, "/global-dashboard/appointments-by-date-range?days=5", nil)
	rec := httptest.NewRecorder()
	h.AppointmentsByDateRange(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Days    int         `json:"days"`
		Buckets []DayBucket `json:"buckets"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Buckets, 5, "window is fully zero-filled")

	var total int
	for _, b := range resp.Buckets {
		total += b.Count
	}
	assert.Equal(t, 1, total)
	assert.Equal(t, now.Format("2006-01-02"), resp.Buckets[4].Day, "last bucket is today")
}

func TestDashboardHandler_AppointmentsByDateRange_BadDays(t *testing.T) {
	h := NewDashboardHandler(NewStatsRepositoryWithDB(mustMockPool(t)), prometheus.NewRegistry(), nil)

	for _, days := range []string{"0", "-3", "91", "week"} {
		req := httptest.NewRequest(http.MethodGet, "/global-dashboard/appointments-by-date-range?days="+days, nil)
		rec := httptest.NewRecorder()
		h.AppointmentsByDateRange(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "days=%s", days)
	}
}

func TestDashboardHandler_SearchAppointments(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	cols := []string{"id", "token_number", "patient_name", "phone", "name", "clinic_id", "date", "start_time", "end_time", "status"}
	mock.ExpectQuery(`ILIKE \$1`).
		WithArgs("%asha%").
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow(int64(1), "3-20260901-001", "Asha Rao", "+91-9000000001", "Dr. Iyer", int64(3), day, "09:00", "09:30", "Confirmed"))

	h := NewDashboardHandler(NewStatsRepositoryWithDB(mock), prometheus.NewRegistry(), nil)

	req := httptest.NewRequest(http.MethodGet, "/global-dashboard/search-appointments?q=asha", nil)
	rec := httptest.NewRecorder()
	h.SearchAppointments(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Appointments []AppointmentRow `json:"appointments"`
		Count        int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "2026-09-01", resp.Appointments[0].Date)
}

func TestDashboardHandler_SearchAppointments_MissingTerm(t *testing.T) {
	h := NewDashboardHandler(NewStatsRepositoryWithDB(mustMockPool(t)), prometheus.NewRegistry(), nil)

	req := httptest.NewRequest(http.MethodGet, "/global-dashboard/search-appointments", nil)
	rec := httptest.NewRecorder()
	h.SearchAppointments(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSnapshotBookingLatency(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewBookingMetrics(reg)
	for i := 0; i < 100; i++ {
		m.ObserveBookingLatency(0.02)
	}
	for i := 0; i < 10; i++ {
		m.ObserveBookingLatency(0.8)
	}

	snap := snapshotBookingLatency(reg)
	assert.Equal(t, int64(110), snap.Total)
	assert.Greater(t, snap.P95Ms, snap.P90Ms-1, "p95 is at or above p90")
	assert.Greater(t, snap.P95Ms, 100.0, "tail observations pull p95 up")
}

func TestSnapshotBookingLatency_Empty(t *testing.T) {
	snap := snapshotBookingLatency(prometheus.NewRegistry())
	assert.Equal(t, LatencySnapshot{}, snap)
}

func mustMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}
