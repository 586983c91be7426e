package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking flow.
type BookingMetrics struct {
	proposalsTotal   *prometheus.CounterVec
	transitionsTotal *prometheus.CounterVec
	slotLatency      prometheus.Histogram
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		proposalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salon",
			Subsystem: "bookings",
			Name:      "proposals_total",
			Help:      "Total booking proposals by outcome",
		}, []string{"outcome"}),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salon",
			Subsystem: "bookings",
			Name:      "transitions_total",
			Help:      "Total booking state transitions",
		}, []string{"to"}),
		slotLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "salon",
			Subsystem: "bookings",
			Name:      "slot_generation_seconds",
			Help:      "Latency of slot grid computation including day fetch",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.proposalsTotal, m.transitionsTotal, m.slotLatency)
	return m
}

// ObserveProposal records a propose outcome: accepted, conflict or rejected.
func (m *BookingMetrics) ObserveProposal(outcome string) {
	if m == nil {
		return
	}
	m.proposalsTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveTransition(to string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(to).Inc()
}

func (m *BookingMetrics) ObserveSlotLatency(seconds float64) {
	if m == nil {
		return
	}
	m.slotLatency.Observe(seconds)
}
