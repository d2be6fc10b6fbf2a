package api

import (
	"net/http"
	"sync/atomic"
	"time"
)

// Metrics collects in-memory server metrics using atomic counters.
type Metrics struct {
	startTime      time.Time
	requests       atomic.Int64
	serverErrors   atomic.Int64
	clientErrors   atomic.Int64
	areasResolved  atomic.Int64
	contentUpdates atomic.Int64

	// routes is filled while routes are registered and only read afterwards.
	routes map[string]*routeStats
}

type routeStats struct {
	requests     atomic.Int64
	clientErrors atomic.Int64
	serverErrors atomic.Int64
}

// RouteSnapshot is the per-route part of a metrics snapshot.
type RouteSnapshot struct {
	Requests     int64 `json:"requests"`
	ClientErrors int64 `json:"client_errors"`
	ServerErrors int64 `json:"server_errors"`
}

// MetricsSnapshot is a point-in-time view of server metrics.
type MetricsSnapshot struct {
	UptimeSeconds  float64 `json:"uptime_seconds"`
	Requests       int64   `json:"requests"`
	ServerErrors   int64   `json:"server_errors"`
	ClientErrors   int64   `json:"client_errors"`
	AreasResolved  int64   `json:"areas_resolved"`
	ContentUpdates int64   `json:"content_updates"`

	Routes map[string]RouteSnapshot `json:"routes"`
}

// NewMetrics creates a new Metrics instance with the current time as start.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now(), routes: make(map[string]*routeStats)}
}

// RecordRequest increments the total request counter.
func (m *Metrics) RecordRequest() {
	m.requests.Add(1)
}

// RecordError increments the server error (5xx) counter.
func (m *Metrics) RecordError() {
	m.serverErrors.Add(1)
}

// RecordClientError increments the client error (4xx) counter.
func (m *Metrics) RecordClientError() {
	m.clientErrors.Add(1)
}

// RecordResolved adds n to the resolved widget areas counter.
func (m *Metrics) RecordResolved(n int64) {
	m.areasResolved.Add(n)
}

// RecordUpdate increments the content update counter.
func (m *Metrics) RecordUpdate() {
	m.contentUpdates.Add(1)
}

// Route counts requests and error responses of one named route. Call it
// only while building the mux.
func (m *Metrics) Route(name string, next http.HandlerFunc) http.HandlerFunc {
	st, ok := m.routes[name]
	if !ok {
		st = &routeStats{}
		m.routes[name] = st
	}
	return func(w http.ResponseWriter, r *http.Request) {
		st.requests.Add(1)
		sc := &statusCapture{ResponseWriter: w, code: http.StatusOK}
		next(sc, r)
		switch {
		case sc.code >= 500:
			st.serverErrors.Add(1)
		case sc.code >= 400:
			st.clientErrors.Add(1)
		}
	}
}

// Snapshot returns a point-in-time copy of the metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		UptimeSeconds:  time.Since(m.startTime).Seconds(),
		Requests:       m.requests.Load(),
		ServerErrors:   m.serverErrors.Load(),
		ClientErrors:   m.clientErrors.Load(),
		AreasResolved:  m.areasResolved.Load(),
		ContentUpdates: m.contentUpdates.Load(),
		Routes:         make(map[string]RouteSnapshot, len(m.routes)),
	}
	for name, st := range m.routes {
		snap.Routes[name] = RouteSnapshot{
			Requests:     st.requests.Load(),
			ClientErrors: st.clientErrors.Load(),
			ServerErrors: st.serverErrors.Load(),
		}
	}
	return snap
}
