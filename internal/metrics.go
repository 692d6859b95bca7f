package internal

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects portal counters. A nil *Metrics records nothing.
type Metrics struct {
	loopsStarted  *prometheus.CounterVec
	loopItems     *prometheus.CounterVec
	loopErrors    *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
	zones         *prometheus.CounterVec
	routeMatches  *prometheus.CounterVec
	renders       *prometheus.HistogramVec
}

// NewMetrics registers the portal collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		loopsStarted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_loops_started_total",
			Help: "Named loops opened, by flavor",
		}, []string{"flavor"}),
		loopItems: f.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_loop_items_total",
			Help: "Items yielded by named loops, by flavor",
		}, []string{"flavor"}),
		loopErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_loop_errors_total",
			Help: "Loops that failed to open, by flavor",
		}, []string{"flavor"}),
		queryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portal_query_duration_seconds",
			Help:    "Content provider query latency",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~800ms
		}, []string{"flavor"}),
		zones: f.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_zone_classifications_total",
			Help: "Zone classifications computed, by kind",
		}, []string{"kind"}),
		routeMatches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_route_matches_total",
			Help: "Requests claimed by a virtual route, by prefix",
		}, []string{"prefix"}),
		renders: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portal_render_duration_seconds",
			Help:    "Theme rendering latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"template"}),
	}
}

func (m *Metrics) loopStarted(f Flavor, took time.Duration, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.loopErrors.WithLabelValues(f.String()).Inc()
		return
	}
	m.loopsStarted.WithLabelValues(f.String()).Inc()
	m.queryDuration.WithLabelValues(f.String()).Observe(took.Seconds())
}

func (m *Metrics) loopItem(f Flavor) {
	if m == nil {
		return
	}
	m.loopItems.WithLabelValues(f.String()).Inc()
}

func (m *Metrics) zoneClassified(k Kind) {
	if m == nil {
		return
	}
	m.zones.WithLabelValues(string(k)).Inc()
}

func (m *Metrics) routeMatched(prefix string) {
	if m == nil {
		return
	}
	m.routeMatches.WithLabelValues(prefix).Inc()
}

func (m *Metrics) rendered(template string, took time.Duration) {
	if m == nil {
		return
	}
	m.renders.WithLabelValues(template).Observe(took.Seconds())
}
