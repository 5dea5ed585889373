package carousel

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolbeat/internal/dates"
	"schoolbeat/internal/models"
)

func at(layoutDate string) time.Time {
	t, err := dates.Normalize(layoutDate)
	if err != nil {
		panic(err)
	}
	return t
}

func TestBuildEmptyInputsYieldEmptyFeed(t *testing.T) {
	got := Build(nil, nil, nil, time.Now())
	assert.Empty(t, got)
}

func TestBuildWindowStartsAtNow(t *testing.T) {
	announcements := []models.Announcement{{EndDate: "01/10/2026", Title: "Spirit Week"}}
	events := []models.GeneralEvent{{Date: "01/12/2026", Name: "Picture Day"}}
	fixtures := []models.AthleticsFixture{{Date: "01/08/2026", Sport: "Basketball", CreatedAt: at("01/01/2026")}}

	now := at("01/09/2026")
	got := Build(announcements, events, fixtures, now)

	require.Len(t, got, 2)
	assert.Equal(t, KindAnnouncement, got[0].Kind)
	assert.Equal(t, "01/10/2026", got[0].Date)
	assert.Equal(t, "Spirit Week", got[0].Announcement.Title)
	assert.Equal(t, KindEvent, got[1].Kind)
	assert.Equal(t, "01/12/2026", got[1].Date)
}

func TestBuildAllPastShowsLastTen(t *testing.T) {
	var events []models.GeneralEvent
	for day := 1; day <= 15; day++ {
		events = append(events, models.GeneralEvent{
			Date: fmt.Sprintf("01/%02d/2025", day),
			Name: fmt.Sprintf("event-%02d", day),
		})
	}

	now := at("06/01/2025")
	got := Build(nil, events, nil, now)

	require.Len(t, got, Limit)
	assert.Equal(t, "event-06", got[0].Event.Name)
	assert.Equal(t, "event-15", got[Limit-1].Event.Name)
}

func TestBuildNeverExceedsLimit(t *testing.T) {
	var events []models.GeneralEvent
	for day := 1; day <= 25; day++ {
		events = append(events, models.GeneralEvent{
			Date: fmt.Sprintf("03/%02d/2027", day),
			Name: fmt.Sprintf("event-%02d", day),
		})
	}

	got := Build(nil, events, nil, at("01/01/2026"))
	assert.Len(t, got, Limit)
}

func TestBuildOrderIsNonDecreasing(t *testing.T) {
	announcements := []models.Announcement{
		{EndDate: "04/20/2026", Title: "a"},
		{EndDate: "04/02/2026", Title: "b"},
	}
	events := []models.GeneralEvent{
		{Date: "04/15/2026", Name: "c"},
		{Date: "04/02/2026", Name: "d"},
	}
	fixtures := []models.AthleticsFixture{
		{Date: "Apr 10 2026", Sport: "e", CreatedAt: at("01/01/2026")},
	}

	got := Build(announcements, events, fixtures, at("01/01/2026"))
	require.Len(t, got, 5)
	for i := 1; i < len(got); i++ {
		prev, err := dates.Normalize(got[i-1].Date)
		require.NoError(t, err)
		cur, err := dates.Normalize(got[i].Date)
		require.NoError(t, err)
		assert.False(t, cur.Before(prev), "entry %d out of order", i)
	}
}

func TestBuildTieBreakKeepsSourcePriority(t *testing.T) {
	announcements := []models.Announcement{{EndDate: "05/01/2026", Title: "ann"}}
	events := []models.GeneralEvent{{Date: "05/01/2026", Name: "evt"}}
	fixtures := []models.AthleticsFixture{{Date: "May 1 2026", Sport: "fix", CreatedAt: at("01/01/2026")}}

	got := Build(announcements, events, fixtures, at("01/01/2026"))
	require.Len(t, got, 3)
	assert.Equal(t, KindAnnouncement, got[0].Kind)
	assert.Equal(t, KindEvent, got[1].Kind)
	assert.Equal(t, KindAthletics, got[2].Kind)
}

func TestBuildFixtureWeekdayDateUsesCreationYear(t *testing.T) {
	fixtures := []models.AthleticsFixture{
		{Date: "Sat, Sep 6", Sport: "Cross Country", CreatedAt: at("08/20/2025")},
	}

	got := Build(nil, nil, fixtures, at("09/01/2025"))
	require.Len(t, got, 1)
	assert.Equal(t, "09/06/2025", got[0].Date)
}

func TestBuildSkipsMalformedDatesInsteadOfFailing(t *testing.T) {
	events := []models.GeneralEvent{
		{Date: "garbage", Name: "bad"},
		{Date: "06/10/2026", Name: "good"},
	}

	got := Build(nil, events, nil, at("01/01/2026"))
	require.Len(t, got, 1)
	assert.Equal(t, "good", got[0].Event.Name)
}
