package metrics

import "github.com/prometheus/client_golang/prometheus"

// BotMetrics exposes counters/histograms for the conversation engine and the
// notification dispatcher.
type BotMetrics struct {
	eventsTotal       *prometheus.CounterVec
	eventLatency      *prometheus.HistogramVec
	applicationsTotal prometheus.Counter
	deliveriesTotal   *prometheus.CounterVec
	listingsCreated   *prometheus.CounterVec
	sessionsEvicted   prometheus.Counter
}

func NewBotMetrics(reg prometheus.Registerer) *BotMetrics {
	m := &BotMetrics{
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rentbot",
			Subsystem: "dialogue",
			Name:      "events_total",
			Help:      "Total inbound events handled by the dialogue engine",
		}, []string{"kind", "outcome"}),
		eventLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rentbot",
			Subsystem: "dialogue",
			Name:      "event_latency_seconds",
			Help:      "Latency of dialogue event handling",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		applicationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rentbot",
			Subsystem: "dialogue",
			Name:      "applications_total",
			Help:      "Total completed rental applications",
		}),
		deliveriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rentbot",
			Subsystem: "notify",
			Name:      "deliveries_total",
			Help:      "Total application deliveries per recipient",
		}, []string{"recipient", "status"}),
		listingsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rentbot",
			Subsystem: "listings",
			Name:      "created_total",
			Help:      "Total listings created through the admin flow",
		}, []string{"status"}),
		sessionsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rentbot",
			Subsystem: "session",
			Name:      "evicted_total",
			Help:      "Total abandoned conversations evicted from the state store",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.eventsTotal, m.eventLatency, m.applicationsTotal, m.deliveriesTotal, m.listingsCreated, m.sessionsEvicted)
	return m
}

func (m *BotMetrics) ObserveEvent(kind, outcome string) {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(kind, outcome).Inc()
}

func (m *BotMetrics) ObserveEventLatency(kind string, seconds float64) {
	if m == nil {
		return
	}
	m.eventLatency.WithLabelValues(kind).Observe(seconds)
}

func (m *BotMetrics) ObserveApplication() {
	if m == nil {
		return
	}
	m.applicationsTotal.Inc()
}

// ObserveDelivery satisfies the notify dispatcher's observer hook.
func (m *BotMetrics) ObserveDelivery(recipient string, delivered bool) {
	if m == nil {
		return
	}
	status := "failed"
	if delivered {
		status = "delivered"
	}
	m.deliveriesTotal.WithLabelValues(recipient, status).Inc()
}

func (m *BotMetrics) ObserveListingCreated(status string) {
	if m == nil {
		return
	}
	m.listingsCreated.WithLabelValues(status).Inc()
}

func (m *BotMetrics) ObserveSessionsEvicted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.sessionsEvicted.Add(float64(n))
}
