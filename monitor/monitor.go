// monitor/monitor.go
package monitor

import (
	"expvar"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Role and result label values.
const (
	RolePlayer   = "player"
	RoleOpponent = "opponent"

	ResultSuccess = "success"
	ResultMiss    = "miss"
)

type Metrics struct {
	OnlineSessions  prometheus.Gauge
	ActiveFights    prometheus.Gauge
	AttacksRecorded *prometheus.CounterVec
	UnmatchedEvents *prometheus.CounterVec
	FightsEnded     *prometheus.CounterVec
	EventLatency    prometheus.Histogram
}

func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OnlineSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_sessions",
			Help:      "Number of connected sessions",
		}),
		ActiveFights: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_fights",
			Help:      "Number of fights being tracked",
		}),
		AttacksRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attacks_recorded_total",
			Help:      "Attacks applied to fight records",
		}, []string{"role", "result"}),
		UnmatchedEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unmatched_events_total",
			Help:      "Attack and death events naming neither combatant",
		}, []string{"kind"}),
		FightsEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fights_ended_total",
			Help:      "Fights ended, by player outcome",
		}, []string{"outcome"}),
		EventLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "event_latency_seconds",
			Help:      "Time from receiving a fight event to applying it",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
	}

	reg.MustRegister(
		m.OnlineSessions,
		m.ActiveFights,
		m.AttacksRecorded,
		m.UnmatchedEvents,
		m.FightsEnded,
		m.EventLatency,
	)

	return m
}

type Monitor struct {
	metrics    *Metrics
	registry   *prometheus.Registry
	startTime  time.Time
	eventCount int64
	mutex      sync.Mutex
}

func NewMonitor(namespace string) *Monitor {
	reg := prometheus.NewRegistry()
	return &Monitor{
		metrics:   NewMetrics(namespace, reg),
		registry:  reg,
		startTime: time.Now(),
	}
}

// Metrics exposes the collectors, mainly for tests.
func (m *Monitor) Metrics() *Metrics {
	return m.metrics
}

var publishOnce sync.Once

// Handler serves the prometheus registry and expvar.
func (m *Monitor) Handler() http.Handler {
	publishOnce.Do(func() {
		expvar.Publish("uptime", expvar.Func(func() interface{} {
			return time.Since(m.startTime).Seconds()
		}))
		expvar.Publish("fight_events", expvar.Func(func() interface{} {
			m.mutex.Lock()
			defer m.mutex.Unlock()
			return m.eventCount
		}))
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	mux.Handle("/debug/vars", expvar.Handler())
	return mux
}

func (m *Monitor) StartServer(addr string) *http.Server {
	srv := &http.Server{Addr: addr, Handler: m.Handler()}
	go srv.ListenAndServe()
	return srv
}

func (m *Monitor) IncOnlineSessions() {
	m.metrics.OnlineSessions.Inc()
}

func (m *Monitor) DecOnlineSessions() {
	m.metrics.OnlineSessions.Dec()
}

func (m *Monitor) SetActiveFights(count int) {
	m.metrics.ActiveFights.Set(float64(count))
}

func (m *Monitor) AttackRecorded(role string, success bool) {
	result := ResultMiss
	if success {
		result = ResultSuccess
	}
	m.metrics.AttacksRecorded.WithLabelValues(role, result).Inc()
}

// EventUnmatched counts a dropped event by kind, e.g. "attack" or "death".
func (m *Monitor) EventUnmatched(kind string) {
	m.metrics.UnmatchedEvents.WithLabelValues(kind).Inc()
}

func (m *Monitor) FightEnded(outcome string) {
	m.metrics.FightsEnded.WithLabelValues(outcome).Inc()
}

func (m *Monitor) ObserveEventLatency(duration time.Duration) {
	m.metrics.EventLatency.Observe(duration.Seconds())
	m.mutex.Lock()
	m.eventCount++
	m.mutex.Unlock()
}
