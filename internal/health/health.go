// This file implements the health and metrics endpoints used for
// monitoring and integration tests.

package health

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Service provides health check and Prometheus metrics endpoints.
type Service struct {
	sessions       prometheus.Gauge
	subscriptions  prometheus.Gauge
	groupsProduced prometheus.Counter
	groupsDropped  prometheus.Counter
}

// New creates a health service with its metrics registered against the
// default Prometheus registry.
func New() *Service {
	s := &Service{
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "moqrelay_sessions_active",
			Help: "Number of currently open sessions.",
		}),
		subscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "moqrelay_subscriptions_active",
			Help: "Number of currently active subscriptions being served.",
		}),
		groupsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "moqrelay_groups_produced_total",
			Help: "Total number of groups produced across all tracks.",
		}),
		groupsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "moqrelay_groups_dropped_total",
			Help: "Total number of groups dropped before completion.",
		}),
	}
	prometheus.MustRegister(s.sessions, s.subscriptions, s.groupsProduced, s.groupsDropped)
	return s
}

// RegisterRoutes adds /healthz and /metrics to the provided mux.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// SessionOpened/SessionClosed track the active session gauge.
func (s *Service) SessionOpened() { s.sessions.Inc() }
func (s *Service) SessionClosed() { s.sessions.Dec() }

// SubscriptionOpened/SubscriptionClosed track the active subscription gauge.
func (s *Service) SubscriptionOpened() { s.subscriptions.Inc() }
func (s *Service) SubscriptionClosed() { s.subscriptions.Dec() }

// GroupProduced/GroupDropped track the group lifecycle counters.
func (s *Service) GroupProduced() { s.groupsProduced.Inc() }
func (s *Service) GroupDropped() { s.groupsDropped.Inc() }
