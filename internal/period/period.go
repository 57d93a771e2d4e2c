// Package period resolves insight types to deterministic time windows.
package period

import (
	"fmt"
	"time"

	"github.com/airraman/focuslog/internal/model"
)

// Resolve maps an insight type and a reference instant to the [start, end)
// window the insight describes. It is pure: the same inputs always produce
// the same bounds, which is required because the bounds are part of the
// insight cache key.
//
// Boundaries are computed with time.Date in the reference instant's location
// rather than millisecond arithmetic, so a window spanning a DST transition
// still satisfies end > start.
func Resolve(t model.InsightType, ref time.Time) (model.TimePeriod, error) {
	switch t {
	case model.InsightDaily:
		return previousDay(ref), nil
	case model.InsightWeekly:
		return previousWeek(ref), nil
	case model.InsightMonthly:
		return previousMonth(ref), nil
	}

	if activity, ok := t.Activity(); ok {
		return rollingWeek(ref, activity), nil
	}

	return model.TimePeriod{}, fmt.Errorf("%w: %q", model.ErrUnknownInsightType, t)
}

// previousDay is the full previous calendar day, local midnight to midnight.
func previousDay(ref time.Time) model.TimePeriod {
	y, m, d := ref.Date()
	end := time.Date(y, m, d, 0, 0, 0, 0, ref.Location())
	start := end.AddDate(0, 0, -1)
	return model.TimePeriod{Start: start, End: end, Label: "Yesterday"}
}

// previousWeek is the full calendar week preceding the week containing ref,
// not a rolling seven days. Weeks start Monday 00:00.
func previousWeek(ref time.Time) model.TimePeriod {
	y, m, d := ref.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, ref.Location())

	// Back up to the Monday of the current week. time.Weekday counts Sunday
	// as 0, so Sunday sits six days past Monday.
	offset := int(day.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset = 6
	}
	end := day.AddDate(0, 0, -offset)
	start := end.AddDate(0, 0, -7)
	return model.TimePeriod{Start: start, End: end, Label: "Last 7 days"}
}

// previousMonth is the full previous calendar month.
func previousMonth(ref time.Time) model.TimePeriod {
	y, m, _ := ref.Date()
	end := time.Date(y, m, 1, 0, 0, 0, 0, ref.Location())
	start := end.AddDate(0, -1, 0)
	return model.TimePeriod{Start: start, End: end, Label: "Last month"}
}

// rollingWeek is the seven days ending at ref, used for activity-scoped
// insights where a fixed calendar boundary would hide recent work.
func rollingWeek(ref time.Time, activity string) model.TimePeriod {
	return model.TimePeriod{
		Start: ref.AddDate(0, 0, -7),
		End:   ref,
		Label: fmt.Sprintf("Last 7 days of %s", activity),
	}
}
