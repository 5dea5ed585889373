// Package carousel builds the home-screen feed: every dated record from the
// three sources merged into one chronological sequence, cut down to a small
// window anchored at the current moment.
package carousel

import (
	"sort"
	"time"

	"schoolbeat/internal/dates"
	"schoolbeat/internal/logger"
	"schoolbeat/internal/models"
)

// Limit is the maximum number of feed entries.
const Limit = 10

// Kind tags which source a feed entry came from.
type Kind string

const (
	KindAnnouncement Kind = "announcement"
	KindEvent        Kind = "event"
	KindAthletics    Kind = "athletics"
)

// Entry is one feed item: the original record plus its kind and normalized
// date. Exactly one of the record pointers is set.
type Entry struct {
	Kind Kind   `json:"kind"`
	Date string `json:"date"`

	Announcement *models.Announcement     `json:"announcement,omitempty"`
	Event        *models.GeneralEvent     `json:"event,omitempty"`
	Fixture      *models.AthleticsFixture `json:"fixture,omitempty"`
}

type tagged struct {
	when  time.Time
	entry Entry
}

// Build merges the three collections and returns at most Limit entries.
//
// The combined sequence is sorted ascending by normalized date; ties keep
// source priority (announcements, events, athletics) and within-source order,
// via the stable sort over the concatenation. The window starts at the first
// entry dated now or later. When every record is in the past the window is
// the last Limit entries instead, so the feed shows the most recent items
// rather than nothing.
//
// A record whose date fails to normalize is dropped with a warning; one bad
// record must not blank the whole feed. Build is a pure function of its
// inputs and safe for concurrent callers.
func Build(announcements []models.Announcement, events []models.GeneralEvent, fixtures []models.AthleticsFixture, now time.Time) []Entry {
	combined := make([]tagged, 0, len(announcements)+len(events)+len(fixtures))

	for i := range announcements {
		a := &announcements[i]
		// Announcements stay in the feed until they expire, so they
		// order by end date.
		when, err := dates.Normalize(a.EndDate)
		if err != nil {
			logger.Warn("dropping announcement from feed", "title", a.Title, "err", err)
			continue
		}
		combined = append(combined, tagged{when, Entry{Kind: KindAnnouncement, Date: dates.Format(when), Announcement: a}})
	}
	for i := range events {
		e := &events[i]
		when, err := dates.Normalize(e.Date)
		if err != nil {
			logger.Warn("dropping event from feed", "name", e.Name, "err", err)
			continue
		}
		combined = append(combined, tagged{when, Entry{Kind: KindEvent, Date: dates.Format(when), Event: e}})
	}
	for i := range fixtures {
		f := &fixtures[i]
		when, err := dates.NormalizeWithYear(f.Date, f.CreatedAt)
		if err != nil {
			logger.Warn("dropping fixture from feed", "sport", f.Sport, "err", err)
			continue
		}
		combined = append(combined, tagged{when, Entry{Kind: KindAthletics, Date: dates.Format(when), Fixture: f}})
	}

	sort.SliceStable(combined, func(i, j int) bool {
		return combined[i].when.Before(combined[j].when)
	})

	window := combined[max(0, len(combined)-Limit):]
	for i, item := range combined {
		if !item.when.Before(now) {
			end := i + Limit
			if end > len(combined) {
				end = len(combined)
			}
			window = combined[i:end]
			break
		}
	}

	out := make([]Entry, 0, len(window))
	for _, item := range window {
		out = append(out, item.entry)
	}
	return out
}
