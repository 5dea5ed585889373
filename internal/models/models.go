// Package models holds the three record kinds the service ingests. Each kind
// carries an identity tuple; two records with equal tuples are the same
// record, and the store enforces that uniqueness. Records are immutable after
// creation: re-ingesting either skips them or replaces the whole collection.
package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// Announcement is a dated school-wide notice submitted through the
// announcements sheet. It is displayed until EndDate.
type Announcement struct {
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// IdentityKey covers every field except CreatedAt.
func (a Announcement) IdentityKey() string {
	return identityKey(a.StartDate, a.EndDate, a.Title, a.Description, a.CreatedBy)
}

// GeneralEvent is a single calendar entry from the school calendar or the
// district feed. Time is display text ("3:30 PM", "All Day"), not parsed.
type GeneralEvent struct {
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

func (e GeneralEvent) IdentityKey() string {
	return identityKey(e.Date, e.Time, e.Name, e.Description, e.Location, e.CreatedBy)
}

// AthleticsFixture is one scheduled athletics event. Date keeps the raw text
// the site publishes ("Aug 22 2025" or "Sat, Sep 6"); it is validated at
// ingest time and normalized again on read. Name is set only for track and
// field meets, which are named rather than described by an opponent.
type AthleticsFixture struct {
	Name      string    `json:"name,omitempty"`
	Date      string    `json:"date"`
	Time      string    `json:"time,omitempty"`
	Gender    string    `json:"gender"`
	Sport     string    `json:"sport"`
	Level     string    `json:"level"`
	Opponent  string    `json:"opponent,omitempty"`
	Location  string    `json:"location"`
	Home      bool      `json:"home"`
	CreatedAt time.Time `json:"created_at"`
}

func (f AthleticsFixture) IdentityKey() string {
	return identityKey(f.Name, f.Date, f.Time, f.Gender, f.Sport, f.Level,
		f.Opponent, f.Location, strconv.FormatBool(f.Home))
}

// identityKey builds a stable key from an identity tuple: each field is
// trimmed, lowercased and whitespace-collapsed, then the tuple is joined and
// hashed. Scraped text often differs only in stray whitespace or casing, and
// those variants must not create duplicates.
func identityKey(fields ...string) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		f = strings.ToLower(strings.TrimSpace(f))
		parts[i] = strings.Join(strings.Fields(f), " ")
	}
	h := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(h[:])[:16]
}
