package sources

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"schoolbeat/internal/logger"
	"schoolbeat/internal/models"
	"schoolbeat/internal/retry"
)

// CalendarOrigin labels events scraped from the school calendar grid.
const CalendarOrigin = "Northside Prep School Calendar"

// CalendarConfig drives the month-by-month walk over the public calendar.
type CalendarConfig struct {
	BaseURL string // site root, e.g. https://www.northsideprep.org
	Years   []int  // school years to cover
	Client  Doer
	Retry   retry.Config
}

// NewCalendarFetcher returns a fetcher that walks every month of every
// configured year. The grid is server-rendered per month; a month that fails
// to fetch is logged and skipped so one bad month does not lose the rest.
func NewCalendarFetcher(cfg CalendarConfig) func(ctx context.Context) ([]models.GeneralEvent, error) {
	return func(ctx context.Context) ([]models.GeneralEvent, error) {
		var all []models.GeneralEvent
		fetched := 0
		for _, year := range cfg.Years {
			for month := 1; month <= 12; month++ {
				// The widget counts months from zero.
				url := fmt.Sprintf("%s/apps/events/view_calendar.jsp?id=0&m=%d&y=%d", cfg.BaseURL, month-1, year)
				doc, err := fetchDocument(ctx, cfg.Client, url, cfg.Retry)
				if err != nil {
					logger.Warn("calendar month fetch failed", "month", month, "year", year, "err", err)
					continue
				}
				all = append(all, parseCalendarMonth(doc, month, year, time.Now())...)
				fetched++
			}
		}
		if fetched == 0 {
			return nil, fmt.Errorf("calendar: every month fetch failed")
		}
		return all, nil
	}
}

// ParseCalendarMonth extracts the events from one rendered month grid.
// Exposed for tests against fixture HTML.
func ParseCalendarMonth(r io.Reader, month, year int) ([]models.GeneralEvent, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse calendar month: %w", err)
	}
	return parseCalendarMonth(doc, month, year, time.Now()), nil
}

func parseCalendarMonth(doc *goquery.Document, month, year int, fetchedAt time.Time) []models.GeneralEvent {
	var events []models.GeneralEvent

	doc.Find("div.day.prev").Each(func(_ int, cell *goquery.Selection) {
		day := strings.TrimSpace(cell.Find("span.dayLabel").First().Text())
		if day == "" {
			return
		}
		date := fmt.Sprintf("%d/%s/%d", month, day, year)

		times := cell.Find("span.edEventDate")
		cell.Find("a.eventInfoAnchor").Each(func(i int, anchor *goquery.Selection) {
			name := strings.TrimSpace(anchor.Text())
			if name == "" {
				return
			}
			// Untimed entries render without an edEventDate span.
			eventTime := "All Day"
			if t := strings.TrimSpace(times.Eq(i).Text()); t != "" {
				eventTime = t
			}
			events = append(events, models.GeneralEvent{
				Date:      date,
				Time:      eventTime,
				Name:      name,
				CreatedBy: CalendarOrigin,
				CreatedAt: fetchedAt,
			})
		})
	})
	return events
}
