package schedule

import (
	"sort"
	"time"
)

const (
	// DefaultRankHorizonDays is how far ahead RankOptimalTimes looks when
	// the caller does not say otherwise.
	DefaultRankHorizonDays = 14
	// DefaultRankLimit caps the number of ranked slots returned.
	DefaultRankLimit = 10

	baseScore = 50.0
)

// RankOptions tunes the optimal-time ranking. Zero values fall back to the
// defaults above; a zero Now falls back to the wall clock.
type RankOptions struct {
	Now         time.Time
	HorizonDays int
	Limit       int
	Urgency     Urgency
}

// RankedSlot is one candidate appointment time with its desirability score.
type RankedSlot struct {
	Date    time.Time `json:"date"`
	Time    TimeOfDay `json:"time"`
	Score   float64   `json:"score"`
	Reasons []string  `json:"reasons"`
}

// RankOptimalTimes scores every open slot over the horizon and returns the
// best candidates, highest score first. The horizon starts the day after
// opts.Now, so slots in the past are never offered. Scoring is additive and
// deterministic; ties break by earlier date, then earlier time.
func RankOptimalTimes(cal *Calendar, booked []Booking, opts RankOptions) []RankedSlot {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	horizon := opts.HorizonDays
	if horizon <= 0 {
		horizon = DefaultRankHorizonDays
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultRankLimit
	}

	today := truncateToDay(now)
	start := today.AddDate(0, 0, 1)

	var ranked []RankedSlot
	for i := 0; i < horizon; i++ {
		date := start.AddDate(0, 0, i)
		for _, slot := range GenerateSlots(cal, date, booked) {
			score := slotScore(date, slot, opts.Urgency, today)
			ranked = append(ranked, RankedSlot{
				Date:    date,
				Time:    slot,
				Score:   score,
				Reasons: scoreReasons(date, slot, score),
			})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if !ranked[i].Date.Equal(ranked[j].Date) {
			return ranked[i].Date.Before(ranked[j].Date)
		}
		return ranked[i].Time < ranked[j].Time
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func slotScore(date time.Time, slot TimeOfDay, urgency Urgency, today time.Time) float64 {
	score := baseScore

	wd := date.Weekday()
	if wd >= time.Monday && wd <= time.Friday {
		score += 10
	}

	switch hour := slot.Hour(); {
	case hour >= 9 && hour <= 11:
		score += 15 // morning, typically less crowded
	case hour >= 14 && hour <= 16:
		score += 10
	}

	if urgency == UrgencyHigh {
		daysOut := int(date.Sub(today).Hours() / 24)
		if bonus := 20 - daysOut; bonus > 0 {
			score += float64(bonus)
		}
	}

	// Mondays and Fridays are typically the busiest clinic days.
	if wd == time.Monday || wd == time.Friday {
		score -= 5
	}

	return score
}

func scoreReasons(date time.Time, slot TimeOfDay, score float64) []string {
	var reasons []string

	switch {
	case score >= 70:
		reasons = append(reasons, "optimal time slot")
	case score >= 60:
		reasons = append(reasons, "good time slot")
	default:
		reasons = append(reasons, "available time slot")
	}

	if wd := date.Weekday(); wd >= time.Monday && wd <= time.Friday {
		reasons = append(reasons, "weekday appointment")
	} else {
		reasons = append(reasons, "weekend appointment")
	}

	switch hour := slot.Hour(); {
	case hour >= 9 && hour <= 11:
		reasons = append(reasons, "morning slot, typically less crowded")
	case hour >= 14 && hour <= 16:
		reasons = append(reasons, "afternoon slot, good availability")
	}

	return reasons
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
