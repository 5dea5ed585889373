package sources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"schoolbeat/internal/logger"
	"schoolbeat/internal/models"
)

// SheetsOrigin labels announcements submitted through the office spreadsheet.
const SheetsOrigin = "Front Office"

// SheetsConfig identifies the announcements spreadsheet. ReadRange skips the
// header row, e.g. "Sheet1!A2:E".
type SheetsConfig struct {
	CredentialsFile string
	SpreadsheetID   string
	ReadRange       string
}

// NewAnnouncementsFetcher returns a fetcher that reads the announcement
// submissions spreadsheet. Expected columns: start date, end date, title,
// description, submitter.
func NewAnnouncementsFetcher(cfg SheetsConfig) func(ctx context.Context) ([]models.Announcement, error) {
	return func(ctx context.Context) ([]models.Announcement, error) {
		svc, err := sheets.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsFile))
		if err != nil {
			return nil, fmt.Errorf("sheets client: %w", err)
		}
		resp, err := svc.Spreadsheets.Values.Get(cfg.SpreadsheetID, cfg.ReadRange).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", cfg.SpreadsheetID, err)
		}
		return AnnouncementsFromRows(resp.Values, time.Now()), nil
	}
}

// AnnouncementsFromRows maps raw sheet rows to announcements. Rows missing a
// title or either date are skipped.
func AnnouncementsFromRows(rows [][]interface{}, fetchedAt time.Time) []models.Announcement {
	var out []models.Announcement
	for i, row := range rows {
		a := models.Announcement{
			StartDate:   cell(row, 0),
			EndDate:     cell(row, 1),
			Title:       cell(row, 2),
			Description: cell(row, 3),
			CreatedBy:   cell(row, 4),
			CreatedAt:   fetchedAt,
		}
		if a.CreatedBy == "" {
			a.CreatedBy = SheetsOrigin
		}
		if a.Title == "" || a.StartDate == "" || a.EndDate == "" {
			logger.Warn("skipping incomplete announcement row", "row", i)
			continue
		}
		out = append(out, a)
	}
	return out
}

func cell(row []interface{}, i int) string {
	if i >= len(row) {
		return ""
	}
	s, _ := row[i].(string)
	return strings.TrimSpace(s)
}
