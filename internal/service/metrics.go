package service

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/smartinventory/backend/internal/domain"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	estimates     *prometheus.CounterVec
	riskFactor    *prometheus.HistogramVec
	weatherFetch  *prometheus.CounterVec
	historyErrors prometheus.Counter
}

// NewMetrics creates collectors on a private registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		estimates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spoilage_estimates_total",
				Help: "Spoilage estimates by scoring path and recommendation tier",
			},
			[]string{"path", "tier"},
		),
		riskFactor: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "spoilage_risk_factor",
				Help:    "Normalised risk factor of produced estimates",
				Buckets: prometheus.LinearBuckets(0, 0.1, 11),
			},
			[]string{"path"},
		),
		weatherFetch: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weather_fetch_total",
				Help: "Forecast fetches by outcome",
			},
			[]string{"outcome"},
		),
		historyErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "spoilage_history_errors_total",
				Help: "Failed history appends",
			},
		),
	}

	m.registry.MustRegister(m.estimates, m.riskFactor, m.weatherFetch, m.historyErrors)
	return m
}

// Registry exposes the registry for the /metrics handler
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) observeEstimate(est domain.SpoilageEstimate) {
	if m == nil {
		return
	}
	m.estimates.WithLabelValues(string(est.Path), string(est.Tier)).Inc()
	m.riskFactor.WithLabelValues(string(est.Path)).Observe(est.RiskFactor)
}

func (m *Metrics) observeWeather(outcome string) {
	if m == nil {
		return
	}
	m.weatherFetch.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeHistoryError() {
	if m == nil {
		return
	}
	m.historyErrors.Inc()
}
