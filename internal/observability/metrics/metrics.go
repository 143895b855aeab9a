package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking flow.
type BookingMetrics struct {
	bookingsTotal      *prometheus.CounterVec
	overbookedTotal    prometheus.Counter
	transitionRejected *prometheus.CounterVec
	bookingLatency     prometheus.Histogram
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medidesk",
			Subsystem: "bookings",
			Name:      "created_total",
			Help:      "Total token appointments created",
		}, []string{"status"}),
		overbookedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "medidesk",
			Subsystem: "bookings",
			Name:      "overbooked_rejections_total",
			Help:      "Booking attempts rejected because the slot was full",
		}),
		transitionRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medidesk",
			Subsystem: "scheduling",
			Name:      "invalid_transitions_total",
			Help:      "Status changes rejected by the transition table",
		}, []string{"entity"}),
		bookingLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "medidesk",
			Subsystem: "bookings",
			Name:      "create_latency_seconds",
			Help:      "Latency of booking creation including the slot lock",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.overbookedTotal, m.transitionRejected, m.bookingLatency)
	return m
}

func (m *BookingMetrics) ObserveBookingCreated(status string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(status).Inc()
}

func (m *BookingMetrics) ObserveOverbooked() {
	if m == nil {
		return
	}
	m.overbookedTotal.Inc()
}

func (m *BookingMetrics) ObserveInvalidTransition(entity string) {
	if m == nil {
		return
	}
	m.transitionRejected.WithLabelValues(entity).Inc()
}

func (m *BookingMetrics) ObserveBookingLatency(seconds float64) {
	if m == nil {
		return
	}
	m.bookingLatency.Observe(seconds)
}
