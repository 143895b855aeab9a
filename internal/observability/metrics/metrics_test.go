package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestBookingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)
	m.ObserveBookingCreated("Pending")
	m.ObserveOverbooked()
	m.ObserveInvalidTransition("slot")
	m.ObserveBookingLatency(0.25)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(families) != 4 {
		t.Fatalf("expected 4 metric families, got %d", len(families))
	}
}

func TestBookingMetricsNilSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveBookingCreated("Pending")
	m.ObserveOverbooked()
	m.ObserveInvalidTransition("booking")
	m.ObserveBookingLatency(0.1)
}
