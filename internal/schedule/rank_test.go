package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankOptimalTimesScoring(t *testing.T) {
	cal := weekdayCalendar(t)

	// Now = Monday, so the horizon starts Tuesday 2024-01-02.
	ranked := RankOptimalTimes(cal, nil, RankOptions{Now: monday, HorizonDays: 3, Limit: 100})

	require.NotEmpty(t, ranked)

	// Best slot: Tuesday morning. 50 base + 10 weekday + 15 morning = 75.
	best := ranked[0]
	assert.Equal(t, monday.AddDate(0, 0, 1), best.Date)
	assert.Equal(t, NewTimeOfDay(9, 0), best.Time)
	assert.Equal(t, 75.0, best.Score)
	assert.Contains(t, best.Reasons, "optimal time slot")
	assert.Contains(t, best.Reasons, "weekday appointment")
}

func TestRankOptimalTimesHighUrgencyPrefersEarlierDates(t *testing.T) {
	cal := weekdayCalendar(t)

	ranked := RankOptimalTimes(cal, nil, RankOptions{
		Now:     monday,
		Urgency: UrgencyHigh,
		Limit:   1,
	})

	require.Len(t, ranked, 1)
	// Tuesday 09:00: 50 + 10 + 15 + (20 - 1 day out) = 94.
	assert.Equal(t, monday.AddDate(0, 0, 1), ranked[0].Date)
	assert.Equal(t, NewTimeOfDay(9, 0), ranked[0].Time)
	assert.Equal(t, 94.0, ranked[0].Score)
}

func TestRankOptimalTimesMondayFridayPenalty(t *testing.T) {
	days, err := WorkingDays("monday")
	require.NoError(t, err)
	cal := weekdayCalendar(t)
	cal.WorkingDays = days

	ranked := RankOptimalTimes(cal, nil, RankOptions{Now: monday, HorizonDays: 7, Limit: 1})

	require.Len(t, ranked, 1)
	// Next Monday morning: 50 + 10 + 15 - 5 = 70.
	assert.Equal(t, 70.0, ranked[0].Score)
}

func TestRankOptimalTimesTieBreakOrdering(t *testing.T) {
	cal := weekdayCalendar(t)

	ranked := RankOptimalTimes(cal, nil, RankOptions{Now: monday, HorizonDays: 3, Limit: 100})

	for i := 1; i < len(ranked); i++ {
		prev, cur := ranked[i-1], ranked[i]
		if prev.Score != cur.Score {
			assert.Greater(t, prev.Score, cur.Score)
			continue
		}
		if !prev.Date.Equal(cur.Date) {
			assert.True(t, prev.Date.Before(cur.Date), "equal scores must order by earlier date")
			continue
		}
		assert.Less(t, prev.Time, cur.Time, "equal score and date must order by earlier time")
	}
}

func TestRankOptimalTimesNeverOffersPastOrSameDaySlots(t *testing.T) {
	cal := weekdayCalendar(t)
	now := time.Date(2024, time.January, 1, 15, 30, 0, 0, time.UTC)

	ranked := RankOptimalTimes(cal, nil, RankOptions{Now: now, Limit: 100})

	require.NotEmpty(t, ranked)
	for _, r := range ranked {
		assert.True(t, r.Date.After(now), "ranked %s %s is not in the future", r.Date.Format("2006-01-02"), r.Time)
	}
}

func TestRankOptimalTimesSkipsBookedSlots(t *testing.T) {
	cal := weekdayCalendar(t)
	tuesday := monday.AddDate(0, 0, 1)
	booked := []Booking{
		{Date: tuesday, Time: NewTimeOfDay(9, 0), Status: StatusScheduled},
	}

	ranked := RankOptimalTimes(cal, booked, RankOptions{Now: monday, HorizonDays: 1, Limit: 100})

	for _, r := range ranked {
		if r.Date.Equal(tuesday) {
			assert.NotEqual(t, NewTimeOfDay(9, 0), r.Time)
		}
	}
}

func TestRankOptimalTimesDefaultLimit(t *testing.T) {
	cal := weekdayCalendar(t)

	ranked := RankOptimalTimes(cal, nil, RankOptions{Now: monday})

	assert.Len(t, ranked, DefaultRankLimit)
}

func TestRankOptimalTimesUnknownDoctor(t *testing.T) {
	assert.Empty(t, RankOptimalTimes(nil, nil, RankOptions{Now: monday}))
}
