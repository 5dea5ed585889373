package sources

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"schoolbeat/internal/logger"
	"schoolbeat/internal/models"
)

// The athletics site loads its schedule incrementally as the page scrolls, so
// it has to be rendered in a headless browser before parsing.
const (
	athleticsRenderTimeout = 3 * time.Minute
	maxScrollAttempts      = 20
	settledScrolls         = 3 // consecutive scrolls with no new cards
)

// selector for one schedule card heading; card count tells us when the
// infinite scroll has run dry.
const cardHeading = "h2.mb-1.font-heading.text-xl"

// NewAthleticsFetcher returns a fetcher for the athletics schedule page.
// extra fetchers (track and field) are appended to the same batch; any
// failure fails the whole run, since a partial batch under the replace
// policy would drop the missing records.
func NewAthleticsFetcher(url string, extra ...func(ctx context.Context) ([]models.AthleticsFixture, error)) func(ctx context.Context) ([]models.AthleticsFixture, error) {
	return func(ctx context.Context) ([]models.AthleticsFixture, error) {
		html, err := renderScrolled(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("render athletics page: %w", err)
		}
		fixtures, err := ParseAthleticsSchedule(strings.NewReader(html), time.Now())
		if err != nil {
			return nil, err
		}
		for _, fetch := range extra {
			more, err := fetch(ctx)
			if err != nil {
				return nil, err
			}
			fixtures = append(fixtures, more...)
		}
		return fixtures, nil
	}
}

// renderScrolled loads url in headless Chrome and keeps scrolling until the
// schedule stops growing, then returns the settled DOM.
func renderScrolled(parent context.Context, url string) (string, error) {
	ctx, cancel := chromedp.NewContext(parent)
	defer cancel()
	ctx, timeoutCancel := context.WithTimeout(ctx, athleticsRenderTimeout)
	defer timeoutCancel()

	if err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.Sleep(5*time.Second),
	); err != nil {
		return "", err
	}

	countExpr := fmt.Sprintf("document.querySelectorAll(%q).length", cardHeading)
	var count, settled int
	for attempt := 0; attempt < maxScrollAttempts; attempt++ {
		var after int
		if err := chromedp.Run(ctx,
			chromedp.Evaluate("window.scrollTo(0, document.body.scrollHeight); undefined", nil),
			chromedp.Sleep(2*time.Second),
			chromedp.Evaluate(countExpr, &after),
		); err != nil {
			return "", err
		}
		if after == count {
			settled++
			if settled >= settledScrolls {
				break
			}
		} else {
			settled = 0
		}
		count = after
	}
	logger.Debug("athletics page settled", "cards", count)

	var html string
	if err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html)); err != nil {
		return "", err
	}
	return html, nil
}

// ParseAthleticsSchedule extracts the fixtures from a rendered schedule page.
// The page lays each card's fields out in parallel element runs, so fields
// are zipped together by position.
func ParseAthleticsSchedule(r io.Reader, fetchedAt time.Time) ([]models.AthleticsFixture, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse athletics page: %w", err)
	}

	// Date headings repeat with extra classes elsewhere on the page; only
	// the bare ones belong to schedule cards.
	var cardDates []string
	doc.Find("h3.uppercase").Each(func(_ int, s *goquery.Selection) {
		if s.AttrOr("class", "") == "uppercase" {
			cardDates = append(cardDates, strings.TrimSpace(s.Text()))
		}
	})

	times := texts(doc, `p.text-base.font-bold[data-testid*="time"]`)
	sports := texts(doc, `p.text-base.font-bold[data-testid*="activity-name"]`)
	venues := texts(doc, `p.text-sm.font-medium[data-testid*="venue"]`)
	genderLevels := texts(doc, `div.text-sm.font-medium.text-core-contrast.text-opacity-80.xl\:text-base[data-testid*="gender-level"]`)
	opponents := texts(doc, cardHeading)
	homeBadges := texts(doc, "div.inline-flex.items-center.gap-1")

	n := len(cardDates)
	for _, run := range [][]string{times, sports, venues, genderLevels, opponents, homeBadges} {
		if len(run) < n {
			n = len(run)
		}
	}
	if n < len(cardDates) {
		logger.Warn("athletics card fields out of step, truncating",
			"dates", len(cardDates), "kept", n)
	}

	fixtures := make([]models.AthleticsFixture, 0, n)
	for i := 0; i < n; i++ {
		gender, level := splitGenderLevel(genderLevels[i])
		opponent := strings.TrimPrefix(opponents[i], "vs ")
		opponent = strings.TrimPrefix(opponent, "at ")

		fixtures = append(fixtures, models.AthleticsFixture{
			Date:      cardDates[i],
			Time:      times[i],
			Gender:    gender,
			Sport:     sports[i],
			Level:     level,
			Opponent:  opponent,
			Location:  venues[i],
			Home:      strings.EqualFold(homeBadges[i], "home"),
			CreatedAt: fetchedAt,
		})
	}
	return fixtures, nil
}

func texts(doc *goquery.Document, selector string) []string {
	var out []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		out = append(out, strings.TrimSpace(s.Text()))
	})
	return out
}

// splitGenderLevel breaks a "Girls Varsity" style label into its parts.
func splitGenderLevel(s string) (gender, level string) {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) > 0 {
		gender = fields[0]
	}
	if len(fields) > 1 {
		level = fields[1]
	}
	return gender, level
}
