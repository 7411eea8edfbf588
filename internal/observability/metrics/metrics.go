package metrics

import "github.com/prometheus/client_golang/prometheus"

// DialogueMetrics exposes counters/histograms for the booking dialogue.
type DialogueMetrics struct {
	inboundTotal        *prometheus.CounterVec
	transitionsTotal    *prometheus.CounterVec
	availabilityTotal   *prometheus.CounterVec
	availabilityLatency prometheus.Histogram
	fallbackTotal       *prometheus.CounterVec
	slotRaceTotal       prometheus.Counter
	confirmationsTotal  *prometheus.CounterVec
}

func NewDialogueMetrics(reg prometheus.Registerer) *DialogueMetrics {
	m := &DialogueMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "citas",
			Subsystem: "dialogue",
			Name:      "inbound_messages_total",
			Help:      "Inbound messages by the step the sender was in",
		}, []string{"step"}),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "citas",
			Subsystem: "dialogue",
			Name:      "transitions_total",
			Help:      "Dialogue step transitions",
		}, []string{"from", "to"}),
		availabilityTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "citas",
			Subsystem: "availability",
			Name:      "fetch_total",
			Help:      "Availability provider fetches by outcome",
		}, []string{"status"}),
		availabilityLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "citas",
			Subsystem: "availability",
			Name:      "fetch_latency_seconds",
			Help:      "Latency of availability provider fetches",
			Buckets:   prometheus.DefBuckets,
		}),
		fallbackTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "citas",
			Subsystem: "fallback",
			Name:      "answers_total",
			Help:      "Free-form answers by outcome",
		}, []string{"status"}),
		slotRaceTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "citas",
			Subsystem: "dialogue",
			Name:      "slot_race_total",
			Help:      "Selected slots that disappeared before confirmation",
		}),
		confirmationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "citas",
			Subsystem: "dialogue",
			Name:      "confirmations_total",
			Help:      "Simulated appointment confirmations by service",
		}, []string{"service"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.inboundTotal,
		m.transitionsTotal,
		m.availabilityTotal,
		m.availabilityLatency,
		m.fallbackTotal,
		m.slotRaceTotal,
		m.confirmationsTotal,
	)
	return m
}

func (m *DialogueMetrics) ObserveInbound(step string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(step).Inc()
}

func (m *DialogueMetrics) ObserveTransition(from, to string) {
	if m == nil || from == to {
		return
	}
	m.transitionsTotal.WithLabelValues(from, to).Inc()
}

func (m *DialogueMetrics) ObserveAvailability(status string, seconds float64) {
	if m == nil {
		return
	}
	m.availabilityTotal.WithLabelValues(status).Inc()
	m.availabilityLatency.Observe(seconds)
}

func (m *DialogueMetrics) ObserveFallback(status string) {
	if m == nil {
		return
	}
	m.fallbackTotal.WithLabelValues(status).Inc()
}

func (m *DialogueMetrics) ObserveSlotRace() {
	if m == nil {
		return
	}
	m.slotRaceTotal.Inc()
}

func (m *DialogueMetrics) ObserveConfirmation(service string) {
	if m == nil {
		return
	}
	m.confirmationsTotal.WithLabelValues(service).Inc()
}
