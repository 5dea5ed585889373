package sources

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"schoolbeat/internal/models"
)

// The cross country calendar on athletic.net is a client-rendered Angular
// app; like the athletics schedule it needs a real browser to produce HTML.

const trackRenderTimeout = 90 * time.Second

// NewTrackFieldFetcher returns a fetcher for the athletic.net team calendar,
// one page per configured season year. Meets carry a name instead of an
// opponent.
func NewTrackFieldFetcher(baseURL string, years []int) func(ctx context.Context) ([]models.AthleticsFixture, error) {
	return func(ctx context.Context) ([]models.AthleticsFixture, error) {
		var all []models.AthleticsFixture
		for _, year := range years {
			url := fmt.Sprintf("%s/%d", baseURL, year)
			html, err := renderTrackPage(ctx, url)
			if err != nil {
				return nil, fmt.Errorf("render track page: %w", err)
			}
			meets, err := ParseTrackFieldMeets(strings.NewReader(html), time.Now())
			if err != nil {
				return nil, err
			}
			all = append(all, meets...)
		}
		return all, nil
	}
}

func renderTrackPage(parent context.Context, url string) (string, error) {
	ctx, cancel := chromedp.NewContext(parent)
	defer cancel()
	ctx, timeoutCancel := context.WithTimeout(ctx, trackRenderTimeout)
	defer timeoutCancel()

	var html string
	err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.Sleep(10*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	return html, err
}

// ParseTrackFieldMeets extracts the meet calendar from a rendered team page.
func ParseTrackFieldMeets(r io.Reader, fetchedAt time.Time) ([]models.AthleticsFixture, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse track page: %w", err)
	}

	var meets []models.AthleticsFixture
	doc.Find("div.px-2.w-100.d-flex.pointer").Each(func(_ int, item *goquery.Selection) {
		name := strings.TrimSpace(item.Find("span.title").First().Text())
		date := strings.TrimSpace(item.Find("small.date").First().Text())
		if name == "" || date == "" {
			return
		}
		meets = append(meets, models.AthleticsFixture{
			Name:      name,
			Date:      date,
			Sport:     "Cross Country",
			CreatedAt: fetchedAt,
		})
	})
	return meets, nil
}
