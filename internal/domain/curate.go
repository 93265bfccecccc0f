package domain

import "time"

// DayFormat is the calendar-day granularity used for curate sessions.
const DayFormat = "2006-01-02"

// CurateSession records one day of curation activity. At most one session
// exists per calendar day; same-day activity accumulates into it.
type CurateSession struct {
	Date    string `json:"date"` // DayFormat
	Kept    int    `json:"kept"`
	Deleted int    `json:"deleted"`
}

// Day truncates a timestamp to the session's calendar-day key.
func Day(t time.Time) string {
	return t.Format(DayFormat)
}

// CurateReason is why a saved tab qualifies for the curation queue.
// The declared order is the queue's sort priority: tabs matching an earlier
// reason surface first.
type CurateReason int

const (
	// ReasonUntagged: the tab only carries the sentinel tag.
	ReasonUntagged CurateReason = iota
	// ReasonAITagged: at least one tag was assigned by an AI suggestion.
	ReasonAITagged
	// ReasonQuickTagged: at least one tag came from the quick-save flow.
	ReasonQuickTagged
	// ReasonAged: the tab is older than the configured age threshold.
	ReasonAged

	numCurateReasons
)

// CurateReasons returns all reasons in priority order.
func CurateReasons() []CurateReason {
	reasons := make([]CurateReason, 0, numCurateReasons)
	for r := ReasonUntagged; r < numCurateReasons; r++ {
		reasons = append(reasons, r)
	}
	return reasons
}

// String implements fmt.Stringer.
func (r CurateReason) String() string {
	switch r {
	case ReasonUntagged:
		return "untagged"
	case ReasonAITagged:
		return "ai_tagged"
	case ReasonQuickTagged:
		return "quick_tagged"
	case ReasonAged:
		return "aged"
	default:
		return "unknown"
	}
}
