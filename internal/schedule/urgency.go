package schedule

import "strings"

var (
	highUrgencyKeywords   = []string{"emergency", "urgent", "pain", "severe"}
	mediumUrgencyKeywords = []string{"conflict", "work", "travel"}
)

// ClassifyUrgency maps a free-text reschedule reason to an urgency level by
// case-insensitive substring match. High beats medium; anything else is low.
func ClassifyUrgency(reason string) Urgency {
	lower := strings.ToLower(reason)
	if containsAny(lower, highUrgencyKeywords) {
		return UrgencyHigh
	}
	if containsAny(lower, mediumUrgencyKeywords) {
		return UrgencyMedium
	}
	return UrgencyLow
}
