// Package metrics exposes Prometheus collectors for deletion outcomes and
// HTTP traffic.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"finance-dashboard/internal/event"
	"finance-dashboard/internal/model"
)

const namespace = "finance"

type Metrics struct {
	registry *prometheus.Registry

	// deletions counts finished sessions.
	// Labels: kind (asset, transaction), outcome (committed, undone, superseded, failed)
	deletions *prometheus.CounterVec

	// pending tracks sessions whose countdown is running.
	pending prometheus.Gauge

	mu       sync.Mutex
	sessions map[string]struct{}

	// requests measures handler latency.
	// Labels: method, route (chi pattern), status
	requests *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sessions: map[string]struct{}{},
		deletions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deletions_total",
			Help:      "Finished deletion sessions by kind and outcome",
		}, []string{"kind", "outcome"}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "deletions_pending",
			Help:      "Deletion countdowns currently running",
		}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		m.deletions,
		m.pending,
		m.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Attach feeds the deletion collectors from the bus.
func (m *Metrics) Attach(bus event.Bus) []*event.Subscription {
	subs := make([]*event.Subscription, 0, len(event.DeletionTypes))
	for _, topic := range event.DeletionTypes {
		if topic == event.TypeDeletionProgress {
			continue
		}
		subs = append(subs, bus.Subscribe(topic, m.observe))
	}
	return subs
}

func (m *Metrics) observe(_ context.Context, e event.Event) error {
	notice, ok := e.Payload.(model.DeletionNotice)
	if !ok {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if e.Type == event.TypeDeletionPending {
		m.sessions[notice.SessionID] = struct{}{}
		m.pending.Inc()
		return nil
	}

	// a start that failed before its countdown was never pending
	if _, ok := m.sessions[notice.SessionID]; ok {
		delete(m.sessions, notice.SessionID)
		m.pending.Dec()
	}
	m.deletions.WithLabelValues(string(notice.Target.Kind), string(notice.Outcome)).Inc()
	return nil
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request latency labelled with the matched route pattern
// so path parameters do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(time.Since(started).Seconds())
	})
}
