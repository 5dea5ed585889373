// Package app wires configuration, storage, sources, the scheduler and the
// HTTP server into one running service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mmcdole/gofeed"

	"schoolbeat/internal/api"
	"schoolbeat/internal/config"
	"schoolbeat/internal/dates"
	"schoolbeat/internal/ingest"
	"schoolbeat/internal/logger"
	"schoolbeat/internal/metrics"
	"schoolbeat/internal/models"
	"schoolbeat/internal/retry"
	"schoolbeat/internal/scheduler"
	"schoolbeat/internal/sources"
	"schoolbeat/internal/store"
)

// The public school sites the sources scrape.
const (
	calendarBaseURL  = "https://www.northsideprep.org"
	athleticsURL     = "https://www.northsideprepathletics.com/schedule?year=2025-2026"
	trackBaseURL     = "https://www.athletic.net/team/19718/cross-country"
	districtFeedURL  = "https://www.cps.edu/press-releases/rss"
	scheduleYearFrom = 2025
)

type collections struct {
	announcements store.Collection[models.Announcement]
	events        store.Collection[models.GeneralEvent]
	fixtures      store.Collection[models.AthleticsFixture]
	close         func() error
}

func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Init()

	cols, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer cols.close()

	srcCfgs, err := config.LoadSources(cfg.SourcesConfigPath)
	if err != nil {
		return fmt.Errorf("load sources: %w", err)
	}

	sched := scheduler.New(dates.Location())
	if err := registerSources(sched, cfg, srcCfgs, cols); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         cfg.Listen,
		Handler:      api.New(cols.announcements, cols.events, cols.fixtures, metrics.Health, time.Now),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(cfg *config.Config) (*collections, error) {
	if cfg.DatabaseURL != "" {
		pg, err := store.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		logger.Info("using postgres store")
		return &collections{
			announcements: pg.Announcements(),
			events:        pg.Events(),
			fixtures:      pg.Fixtures(),
			close:         pg.Close,
		}, nil
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, err
	}
	announcements, err := store.OpenFile[models.Announcement](filepath.Join(cfg.DataDir, "announcements.json"))
	if err != nil {
		return nil, err
	}
	events, err := store.OpenFile[models.GeneralEvent](filepath.Join(cfg.DataDir, "events.json"))
	if err != nil {
		return nil, err
	}
	fixtures, err := store.OpenFile[models.AthleticsFixture](filepath.Join(cfg.DataDir, "athletics.json"))
	if err != nil {
		return nil, err
	}
	logger.Info("using file store", "dir", cfg.DataDir)
	return &collections{
		announcements: announcements,
		events:        events,
		fixtures:      fixtures,
		close:         func() error { return nil },
	}, nil
}

// registerSources turns each roster entry into a scheduled ingestion job.
// Unknown names are a config error; a source that needs missing credentials
// is skipped with a log line rather than failing startup.
func registerSources(sched *scheduler.Scheduler, cfg *config.Config, srcCfgs []config.SourceConfig, cols *collections) error {
	rcfg := retry.Config{Attempts: cfg.RetryAttempts, Delay: cfg.RetryDelay, Backoff: true}
	client := &http.Client{Timeout: cfg.RequestTimeout}
	years := []int{scheduleYearFrom, scheduleYearFrom + 1}

	for _, sc := range srcCfgs {
		if sc.Disabled {
			logger.Info("source disabled", "source", sc.Name)
			continue
		}
		policy, err := ingest.ParsePolicy(sc.Policy)
		if err != nil {
			return fmt.Errorf("source %s: %w", sc.Name, err)
		}

		var add func() error
		switch sc.Name {
		case "announcements":
			if cfg.SheetsCredentialsFile == "" || cfg.SheetsSpreadsheetID == "" {
				logger.Warn("sheets credentials not configured, skipping source", "source", sc.Name)
				continue
			}
			src := ingest.Source[models.Announcement]{
				Name: sc.Name,
				Fetch: sources.NewAnnouncementsFetcher(sources.SheetsConfig{
					CredentialsFile: cfg.SheetsCredentialsFile,
					SpreadsheetID:   cfg.SheetsSpreadsheetID,
					ReadRange:       cfg.SheetsRange,
				}),
				Valid:  validAnnouncement,
				Col:    cols.announcements,
				Policy: policy,
			}
			add = func() error { return addJob(sched, sc, src) }

		case "calendar":
			base := sc.URL
			if base == "" {
				base = calendarBaseURL
			}
			src := ingest.Source[models.GeneralEvent]{
				Name: sc.Name,
				Fetch: sources.NewCalendarFetcher(sources.CalendarConfig{
					BaseURL: base,
					Years:   years,
					Client:  client,
					Retry:   rcfg,
				}),
				Valid:  validEvent,
				Col:    cols.events,
				Policy: policy,
			}
			add = func() error { return addJob(sched, sc, src) }

		case "district":
			url := sc.URL
			if url == "" {
				url = districtFeedURL
			}
			src := ingest.Source[models.GeneralEvent]{
				Name:   sc.Name,
				Fetch:  sources.NewDistrictFeedFetcher(url, gofeed.NewParser()),
				Valid:  validEvent,
				Col:    cols.events,
				Policy: policy,
			}
			add = func() error { return addJob(sched, sc, src) }

		case "athletics":
			url := sc.URL
			if url == "" {
				url = athleticsURL
			}
			src := ingest.Source[models.AthleticsFixture]{
				Name: sc.Name,
				Fetch: sources.NewAthleticsFetcher(url,
					sources.NewTrackFieldFetcher(trackBaseURL, years)),
				Valid:  validFixture,
				Col:    cols.fixtures,
				Policy: policy,
			}
			add = func() error { return addJob(sched, sc, src) }

		default:
			return fmt.Errorf("unknown source %q in roster", sc.Name)
		}

		if err := add(); err != nil {
			return fmt.Errorf("schedule %s: %w", sc.Name, err)
		}
	}
	return nil
}

func addJob[T store.Record](sched *scheduler.Scheduler, sc config.SourceConfig, src ingest.Source[T]) error {
	return sched.Add(sc.Cron, sc.Name, func(ctx context.Context) error {
		_, err := ingest.Run(ctx, src)
		return err
	})
}

func validAnnouncement(a models.Announcement) error {
	if _, err := dates.Normalize(a.StartDate); err != nil {
		return err
	}
	_, err := dates.Normalize(a.EndDate)
	return err
}

func validEvent(e models.GeneralEvent) error {
	_, err := dates.Normalize(e.Date)
	return err
}

func validFixture(f models.AthleticsFixture) error {
	_, err := dates.NormalizeWithYear(f.Date, f.CreatedAt)
	return err
}
