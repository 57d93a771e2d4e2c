// Package pipeline reduces session history into compact summaries and
// data-change fingerprints for the insight generator.
package pipeline

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/airraman/focuslog/internal/model"
)

// maxSampleDescriptions bounds how many notes are carried per activity.
const maxSampleDescriptions = 3

// maxTopActivities bounds the ranked activity list.
const maxTopActivities = 3

// AggregateOptions configures a single aggregation pass.
type AggregateOptions struct {
	// PreviousPeriod, when non-nil, enables trend deltas against the
	// sessions of the preceding window.
	PreviousPeriod []model.Session
	WithTrends     bool
}

// Aggregate reduces a session list into a Summary. It is deterministic and
// never fails: empty input yields an all-zero summary. The reduction bounds
// downstream payload size to O(distinct activities) statistics plus at most
// three sample notes per activity, however many raw sessions exist.
func Aggregate(sessions []model.Session, opts AggregateOptions) model.Summary {
	summary := model.Summary{
		Activities:    make(map[string]*model.ActivityStats),
		TopActivities: []model.ActivityHours{},
	}

	var totalSecs int64
	var described int
	durations := make(map[string]int64, 8)
	seen := make(map[string]map[string]struct{}, 8)

	for _, s := range sessions {
		summary.TotalSessions++
		totalSecs += s.DurationSecs

		as, ok := summary.Activities[s.ActivityType]
		if !ok {
			as = &model.ActivityStats{}
			summary.Activities[s.ActivityType] = as
			seen[s.ActivityType] = make(map[string]struct{})
		}
		as.SessionCount++
		durations[s.ActivityType] += s.DurationSecs

		if s.HasDescription() {
			described++
			desc := strings.TrimSpace(s.Description)
			// First-seen wins; exact duplicates are skipped.
			if _, dup := seen[s.ActivityType][desc]; !dup && len(as.SampleDescriptions) < maxSampleDescriptions {
				seen[s.ActivityType][desc] = struct{}{}
				as.SampleDescriptions = append(as.SampleDescriptions, desc)
			}
		}
	}

	if summary.TotalSessions == 0 {
		return summary
	}

	summary.TotalHours = roundHours(totalSecs)
	summary.AvgSessionMins = math.Round(float64(totalSecs) / 60 / float64(summary.TotalSessions))
	summary.DescriptionDensity = float64(described) / float64(summary.TotalSessions)

	for activity, as := range summary.Activities {
		secs := durations[activity]
		as.TotalHours = roundHours(secs)
		as.AvgMins = math.Round(float64(secs) / 60 / float64(as.SessionCount))
	}

	summary.TopActivities = rankActivities(durations)

	if opts.WithTrends {
		summary.Trends = computeTrends(summary.TotalSessions, totalSecs, opts.PreviousPeriod)
	}

	return summary
}

// rankActivities sorts activities by total duration descending and keeps the
// top three. Ties break alphabetically so equal inputs rank identically.
func rankActivities(durations map[string]int64) []model.ActivityHours {
	ranked := make([]model.ActivityHours, 0, len(durations))
	for activity, secs := range durations {
		ranked = append(ranked, model.ActivityHours{Activity: activity, Hours: roundHours(secs)})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Hours != ranked[j].Hours {
			return ranked[i].Hours > ranked[j].Hours
		}
		return ranked[i].Activity < ranked[j].Activity
	})
	if len(ranked) > maxTopActivities {
		ranked = ranked[:maxTopActivities]
	}
	return ranked
}

func computeTrends(curCount int, curSecs int64, previous []model.Session) *model.Trends {
	var prevSecs int64
	for _, s := range previous {
		prevSecs += s.DurationSecs
	}

	tr := &model.Trends{
		SessionCountChange: curCount - len(previous),
		HoursChange:        roundHours(curSecs) - roundHours(prevSecs),
	}

	switch {
	case prevSecs > 0:
		tr.PercentageChange = round1(float64(curSecs-prevSecs) / float64(prevSecs) * 100)
	case curSecs > 0:
		// Went from nothing to something: report a full increase instead of
		// dividing by zero.
		tr.PercentageChange = 100
	}

	return tr
}

// FilterByActivity returns the sessions tagged with the given activity.
// An empty filter returns the input unchanged.
func FilterByActivity(sessions []model.Session, activity string) []model.Session {
	if activity == "" {
		return sessions
	}
	var result []model.Session
	for _, s := range sessions {
		if s.ActivityType == activity {
			result = append(result, s)
		}
	}
	return result
}

// FilterByTime returns sessions whose start time falls within [since, until).
func FilterByTime(sessions []model.Session, since, until time.Time) []model.Session {
	var result []model.Session
	for _, s := range sessions {
		if s.StartTime.Before(since) || !s.StartTime.Before(until) {
			continue
		}
		result = append(result, s)
	}
	return result
}

func roundHours(secs int64) float64 {
	return round1(float64(secs) / 3600)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
