package metrics

import "github.com/prometheus/client_golang/prometheus"

// CalendarSyncMetrics counts per-event outcomes of calendar sync runs.
type CalendarSyncMetrics struct {
	events *prometheus.CounterVec
	runs   *prometheus.CounterVec
}

// NewCalendarSyncMetrics registers the sync metrics on the provided registerer.
func NewCalendarSyncMetrics(reg prometheus.Registerer) *CalendarSyncMetrics {
	if reg == nil {
		return &CalendarSyncMetrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "calendar_sync_events_total",
		Help: "Calendar events handled by sync, labeled by outcome.",
	}, []string{"outcome"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "calendar_sync_runs_total",
		Help: "Calendar sync runs, labeled by result.",
	}, []string{"result"})
	reg.MustRegister(events, runs)
	return &CalendarSyncMetrics{events: events, runs: runs}
}

// IncEvent records one handled event outcome (synced, unmatched, skipped, error).
func (m *CalendarSyncMetrics) IncEvent(outcome string) {
	if m == nil || m.events == nil {
		return
	}
	m.events.WithLabelValues(outcome).Inc()
}

// IncRun records a completed run result (ok, failed).
func (m *CalendarSyncMetrics) IncRun(result string) {
	if m == nil || m.runs == nil {
		return
	}
	m.runs.WithLabelValues(result).Inc()
}
