package ingest

import (
	"context"
	"fmt"
	"time"

	"schoolbeat/internal/logger"
	"schoolbeat/internal/metrics"
	"schoolbeat/internal/store"
)

// Source ties a raw-record producer to its collection and reconcile policy.
// The fetcher is the scraping layer; it only produces field values and never
// touches the store.
type Source[T store.Record] struct {
	Name   string
	Fetch  func(ctx context.Context) ([]T, error)
	Valid  func(T) error // date validation; nil means accept everything
	Col    store.Collection[T]
	Policy Policy
}

// Run executes one ingestion pass for a source: fetch, validate each record's
// date, reconcile. A fetch failure aborts the run before anything is written.
// A record whose date cannot be normalized is skipped on its own, not fatal
// to the batch.
func Run[T store.Record](ctx context.Context, src Source[T]) (Result, error) {
	log := logger.With("source", src.Name)
	start := time.Now()

	observed, err := src.Fetch(ctx)
	if err != nil {
		metrics.IngestRuns.WithLabelValues(src.Name, "fetch_error").Inc()
		metrics.Health.RecordRun(src.Name, 0, 0, 0, err)
		return Result{}, fmt.Errorf("fetch %s: %w", src.Name, err)
	}

	skipped := 0
	if src.Valid != nil {
		kept := observed[:0]
		for _, rec := range observed {
			if verr := src.Valid(rec); verr != nil {
				log.Warn("skipping record with unusable date", "err", verr)
				metrics.ParseFailures.WithLabelValues(src.Name).Inc()
				skipped++
				continue
			}
			kept = append(kept, rec)
		}
		observed = kept
	}

	res, err := Reconcile(ctx, src.Col, observed, src.Policy)
	metrics.Health.RecordRun(src.Name, res.Inserted, res.Existing, skipped, err)
	if err != nil {
		metrics.IngestRuns.WithLabelValues(src.Name, "error").Inc()
		return res, fmt.Errorf("reconcile %s: %w", src.Name, err)
	}

	metrics.IngestRuns.WithLabelValues(src.Name, "ok").Inc()
	metrics.RecordsInserted.WithLabelValues(src.Name).Add(float64(res.Inserted))
	metrics.RecordsExisting.WithLabelValues(src.Name).Add(float64(res.Existing))
	metrics.IngestDuration.WithLabelValues(src.Name).Observe(time.Since(start).Seconds())

	log.Info("ingestion run finished",
		"observed", len(observed),
		"inserted", res.Inserted,
		"existing", res.Existing,
		"skipped", skipped,
		"took", time.Since(start).Round(time.Millisecond),
	)
	return res, nil
}
