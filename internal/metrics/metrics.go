// Package metrics exposes ingestion counters to Prometheus and keeps a small
// run-status snapshot for the health endpoint.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RecordsInserted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schoolbeat_records_inserted_total",
		Help: "Records newly persisted per source.",
	}, []string{"source"})

	RecordsExisting = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schoolbeat_records_existing_total",
		Help: "Observed records already present per source.",
	}, []string{"source"})

	ParseFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schoolbeat_date_parse_failures_total",
		Help: "Records skipped because their date failed to normalize.",
	}, []string{"source"})

	IngestRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schoolbeat_ingest_runs_total",
		Help: "Completed ingestion runs per source and outcome.",
	}, []string{"source", "status"})

	IngestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "schoolbeat_ingest_duration_seconds",
		Help:    "Wall time of one ingestion run.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	}, []string{"source"})
)

func init() {
	prometheus.MustRegister(RecordsInserted, RecordsExisting, ParseFailures, IngestRuns, IngestDuration)
}

// SourceStatus is the last-run outcome for one source.
type SourceStatus struct {
	LastRunTime time.Time `json:"last_run_time"`
	LastError   string    `json:"last_error,omitempty"`
	Inserted    int       `json:"inserted"`
	Existing    int       `json:"existing"`
	Skipped     int       `json:"skipped"`
}

// Status aggregates per-source run outcomes. It is written by ingestion runs
// and read by the health and status handlers, hence the lock.
type Status struct {
	mu      sync.RWMutex
	sources map[string]SourceStatus
}

// Health is the process-wide status instance.
var Health = NewStatus()

// NewStatus returns an empty status tracker. Tests use their own instance;
// production code shares Health.
func NewStatus() *Status {
	return &Status{sources: make(map[string]SourceStatus)}
}

// RecordRun stores the outcome of one ingestion run.
func (s *Status) RecordRun(source string, inserted, existing, skipped int, runErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := SourceStatus{
		LastRunTime: time.Now(),
		Inserted:    inserted,
		Existing:    existing,
		Skipped:     skipped,
	}
	if runErr != nil {
		st.LastError = runErr.Error()
	}
	s.sources[source] = st
}

// Snapshot returns a copy of all source statuses.
func (s *Status) Snapshot() map[string]SourceStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]SourceStatus, len(s.sources))
	for name, st := range s.sources {
		out[name] = st
	}
	return out
}

// Healthy reports whether the most recent run of every source succeeded.
// Sources that have not run yet do not count against health.
func (s *Status) Healthy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, st := range s.sources {
		if st.LastError != "" {
			return false
		}
	}
	return true
}
