package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"

	"schoolbeat/internal/dates"
	"schoolbeat/internal/logger"
	"schoolbeat/internal/models"
)

// DistrictOrigin labels events taken from the district news feed.
const DistrictOrigin = "District Newsroom"

// NewDistrictFeedFetcher returns a fetcher for the district RSS feed. Feed
// items become general events dated by their publication time.
func NewDistrictFeedFetcher(url string, client *gofeed.Parser) func(ctx context.Context) ([]models.GeneralEvent, error) {
	if client == nil {
		client = gofeed.NewParser()
	}
	client.UserAgent = userAgent

	return func(ctx context.Context) ([]models.GeneralEvent, error) {
		feed, err := client.ParseURLWithContext(url, ctx)
		if err != nil {
			return nil, fmt.Errorf("district feed %s: %w", url, err)
		}
		return eventsFromFeed(feed, time.Now()), nil
	}
}

func eventsFromFeed(feed *gofeed.Feed, fetchedAt time.Time) []models.GeneralEvent {
	var events []models.GeneralEvent
	for _, item := range feed.Items {
		when := item.PublishedParsed
		if when == nil {
			when = item.UpdatedParsed
		}
		if when == nil {
			logger.Warn("district feed item has no date", "title", item.Title)
			continue
		}
		local := when.In(dates.Location())
		events = append(events, models.GeneralEvent{
			Date:        dates.Format(local),
			Time:        local.Format("3:04 PM"),
			Name:        item.Title,
			Description: item.Description,
			CreatedBy:   DistrictOrigin,
			CreatedAt:   fetchedAt,
		})
	}
	return events
}
