package reporting

import (
	"encoding/json"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/medidesk/medidesk-platform/internal/scheduling"
	"github.com/medidesk/medidesk-platform/pkg/logging"
)

const bookingLatencyMetric = "medidesk_bookings_create_latency_seconds"

// GlobalStats is the top-level dashboard payload.
type GlobalStats struct {
	TotalAppointments     int                              `json:"total_appointments"`
	StatusCounts          map[scheduling.BookingStatus]int `json:"status_counts"`
	RevenueCents          int64                            `json:"revenue_cents"`
	EstimatedRevenueCents int64                            `json:"estimated_revenue_cents"`
	EstimatedNote         string                           `json:"estimated_note"`
	BookingLatency        LatencySnapshot                  `json:"booking_latency"`
}

// LatencySnapshot summarizes the booking-creation latency histogram.
type LatencySnapshot struct {
	Total int64   `json:"total"`
	P90Ms float64 `json:"p90_ms"`
	P95Ms float64 `json:"p95_ms"`
}

// DashboardHandler serves the global dashboard endpoints.
type DashboardHandler struct {
	repo     *StatsRepository
	gatherer prometheus.Gatherer
	logger   *logging.Logger
}

// NewDashboardHandler creates a dashboard handler. A nil gatherer falls back
// to the process-wide default.
func NewDashboardHandler(repo *StatsRepository, gatherer prometheus.Gatherer, logger *logging.Logger) *DashboardHandler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DashboardHandler{repo: repo, gatherer: gatherer, logger: logger}
}

// Stats handles GET /global-dashboard/stats.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.repo.AllBookings(r.Context())
	if err != nil {
		h.logger.Error("failed to load bookings for stats", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	fees, err := h.repo.DoctorFees(r.Context())
	if err != nil {
		h.logger.Error("failed to load doctor fees", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	resolver := func(doctorID int64) int64 { return fees[doctorID] }

	resp := GlobalStats{
		TotalAppointments:     len(bookings),
		StatusCounts:          CountByStatus(bookings),
		RevenueCents:          Revenue(bookings, resolver),
		EstimatedRevenueCents: EstimatedRevenue(bookings, resolver),
		EstimatedNote:         "estimate includes pending and confirmed appointments",
		BookingLatency:        snapshotBookingLatency(h.gatherer),
	}
	writeJSON(w, resp)
}

// TodayAppointments handles GET /global-dashboard/today-appointments.
func (h *DashboardHandler) TodayAppointments(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	rows, err := h.repo.AppointmentsForDay(r.Context(), day)
	if err != nil {
		h.logger.Error("failed to load today's appointments", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []AppointmentRow{}
	}
	writeJSON(w, map[string]any{
		"date":         day.Format("2006-01-02"),
		"appointments": rows,
		"count":        len(rows),
	})
}

// experienceBands and feeBands are the histogram bands shown on the
// doctor-wise dashboard card.
var experienceBands = []ValueRange{
	{Label: "0-5 years", Min: 0, Max: 5},
	{Label: "6-10 years", Min: 6, Max: 10},
	{Label: "11-20 years", Min: 11, Max: 20},
	{Label: "20+ years", Min: 21, Max: 0},
}

var feeBands = []ValueRange{
	{Label: "under $50", Min: 0, Max: 4999},
	{Label: "$50-$99", Min: 5000, Max: 9999},
	{Label: "$100-$199", Min: 10000, Max: 19999},
	{Label: "$200+", Min: 20000, Max: 0},
}

// DoctorWiseStats handles GET /global-dashboard/doctor-wise-stats.
func (h *DashboardHandler) DoctorWiseStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.DoctorWiseStats(r.Context())
	if err != nil {
		h.logger.Error("failed to load doctor-wise stats", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	if stats == nil {
		stats = []DoctorStats{}
	}

	experience := make([]int64, len(stats))
	fees := make([]int64, len(stats))
	for i, s := range stats {
		experience[i] = s.ExperienceYears
		fees[i] = s.FeeCents
	}

	writeJSON(w, map[string]any{
		"doctors":                 stats,
		"count":                   len(stats),
		"experience_distribution": BucketByRange(experience, experienceBands),
		"fee_distribution":        BucketByRange(fees, feeBands),
	})
}

// AppointmentsByDateRange handles GET /global-dashboard/appointments-by-date-range.
// Query param days (1-90, default 7) selects the trailing window; every day
// appears in the response even when empty.
func (h *DashboardHandler) AppointmentsByDateRange(w http.ResponseWriter, r *http.Request) {
	days := 7
	if raw := strings.TrimSpace(r.URL.Query().Get("days")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 90 {
			http.Error(w, `{"error":"invalid days; must be 1-90"}`, http.StatusBadRequest)
			return
		}
		days = parsed
	}

	now := time.Now().UTC()
	end := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, 0, -days)

	bookings, err := h.repo.BookingsCreatedBetween(r.Context(), start, end)
	if err != nil {
		h.logger.Error("failed to load bookings for range", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"days":    days,
		"buckets": BucketByDay(bookings, now, days),
	})
}

// SearchAppointments handles GET /global-dashboard/search-appointments?q=.
func (h *DashboardHandler) SearchAppointments(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("q"))
	if term == "" {
		http.Error(w, `{"error":"q required"}`, http.StatusBadRequest)
		return
	}

	rows, err := h.repo.SearchAppointments(r.Context(), term)
	if err != nil {
		h.logger.Error("failed to search appointments", "error", err, "term", term)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []AppointmentRow{}
	}
	writeJSON(w, map[string]any{"appointments": rows, "count": len(rows)})
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

// snapshotBookingLatency reads the booking-creation histogram out of the
// Prometheus gatherer so the dashboard can show p90/p95 without a metrics
// backend.
func snapshotBookingLatency(gatherer prometheus.Gatherer) LatencySnapshot {
	if gatherer == nil {
		return LatencySnapshot{}
	}
	mfs, err := gatherer.Gather()
	if err != nil {
		return LatencySnapshot{}
	}

	var family *dto.MetricFamily
	for _, mf := range mfs {
		if mf != nil && mf.GetName() == bookingLatencyMetric {
			family = mf
			break
		}
	}
	if family == nil {
		return LatencySnapshot{}
	}

	cumulativeByUpper := map[float64]uint64{}
	var sampleCount uint64
	for _, metric := range family.Metric {
		if metric == nil {
			continue
		}
		hist := metric.GetHistogram()
		if hist == nil {
			continue
		}
		sampleCount += hist.GetSampleCount()
		for _, b := range hist.Bucket {
			if b == nil {
				continue
			}
			cumulativeByUpper[b.GetUpperBound()] += b.GetCumulativeCount()
		}
	}
	if sampleCount == 0 || len(cumulativeByUpper) == 0 {
		return LatencySnapshot{}
	}

	uppers := make([]float64, 0, len(cumulativeByUpper))
	for upper := range cumulativeByUpper {
		uppers = append(uppers, upper)
	}
	sort.Float64s(uppers)

	return LatencySnapshot{
		Total: int64(sampleCount),
		P90Ms: histogramQuantile(0.90, sampleCount, uppers, cumulativeByUpper) * 1000.0,
		P95Ms: histogramQuantile(0.95, sampleCount, uppers, cumulativeByUpper) * 1000.0,
	}
}

func histogramQuantile(q float64, total uint64, uppers []float64, cumulativeByUpper map[float64]uint64) float64 {
	if total == 0 || q <= 0 {
		return 0
	}
	if q >= 1 {
		for i := len(uppers) - 1; i >= 0; i-- {
			if !math.IsInf(uppers[i], 1) {
				return uppers[i]
			}
		}
		return 0
	}

	target := q * float64(total)
	var prevUpper float64
	var prevCum float64
	for _, upper := range uppers {
		cum := float64(cumulativeByUpper[upper])
		if cum < target {
			prevUpper = upper
			prevCum = cum
			continue
		}
		bucketCount := cum - prevCum
		if bucketCount <= 0 || upper == prevUpper {
			return upper
		}
		if math.IsInf(upper, 1) {
			return prevUpper
		}
		return prevUpper + (upper-prevUpper)*((target-prevCum)/bucketCount)
	}
	for i := len(uppers) - 1; i >= 0; i-- {
		if !math.IsInf(uppers[i], 1) {
			return uppers[i]
		}
	}
	return 0
}
