package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "nailstudio"

// BookingMetrics counts wizard actions and confirmation outcomes.
type BookingMetrics struct {
	actionsTotal       *prometheus.CounterVec
	confirmationsTotal *prometheus.CounterVec
	confirmLatency     prometheus.Histogram
	sessionsCreated    prometheus.Counter
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		actionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "actions_total",
			Help:      "Wizard actions applied, by action and result",
		}, []string{"action", "result"}),
		confirmationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "confirmations_total",
			Help:      "Booking confirmation attempts, by outcome",
		}, []string{"outcome"}),
		confirmLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "confirm_latency_seconds",
			Help:      "Latency of booking confirmation",
			Buckets:   prometheus.DefBuckets,
		}),
		sessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "sessions_created_total",
			Help:      "Wizard sessions started",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.actionsTotal, m.confirmationsTotal, m.confirmLatency, m.sessionsCreated)
	return m
}

func (m *BookingMetrics) ObserveAction(action string, err error) {
	if m == nil {
		return
	}
	m.actionsTotal.WithLabelValues(action, resultLabel(err)).Inc()
}

func (m *BookingMetrics) ObserveConfirmation(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.confirmationsTotal.WithLabelValues(outcome).Inc()
	m.confirmLatency.Observe(seconds)
}

func (m *BookingMetrics) ObserveSessionCreated() {
	if m == nil {
		return
	}
	m.sessionsCreated.Inc()
}

// ChatMetrics tracks the chat proxy.
type ChatMetrics struct {
	requestsTotal   *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "requests_total",
			Help:      "Chat proxy requests, by outcome",
		}, []string{"outcome"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "upstream_latency_seconds",
			Help:      "Latency of upstream chat completions",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.upstreamLatency)
	return m
}

func (m *ChatMetrics) ObserveRequest(outcome string) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(outcome).Inc()
}

func (m *ChatMetrics) ObserveUpstreamLatency(provider string, seconds float64) {
	if m == nil {
		return
	}
	m.upstreamLatency.WithLabelValues(provider).Observe(seconds)
}

// FormMetrics counts contact and newsletter submissions.
type FormMetrics struct {
	submissionsTotal *prometheus.CounterVec
}

func NewFormMetrics(reg prometheus.Registerer) *FormMetrics {
	m := &FormMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "forms",
			Name:      "submissions_total",
			Help:      "Simulated form submissions, by form and result",
		}, []string{"form", "result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal)
	return m
}

func (m *FormMetrics) ObserveSubmission(form string, err error) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(form, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
