package insight

import (
	"fmt"
	"sort"
	"strings"

	"github.com/airraman/focuslog/internal/model"
)

// BuildPrompt renders a summary into the instruction sent to the text
// service: quantitative figures first, then per-activity context, then a
// tight output constraint. Pure templating, no I/O.
func BuildPrompt(summary model.Summary, t model.InsightType, p model.TimePeriod) string {
	if summary.TotalSessions == 0 {
		return emptyPrompt(p)
	}

	var b strings.Builder

	switch {
	case t == model.InsightDaily:
		b.WriteString("Here is what the user worked on yesterday.\n\n")
	case t == model.InsightWeekly:
		b.WriteString("Here is what the user worked on last week.\n\n")
	case t == model.InsightMonthly:
		b.WriteString("Here is what the user worked on last month.\n\n")
	default:
		if activity, ok := t.Activity(); ok {
			fmt.Fprintf(&b, "Here is the user's %q work over the last 7 days.\n\n", activity)
		} else {
			fmt.Fprintf(&b, "Here is what the user worked on during %s.\n\n", p.Label)
		}
	}

	fmt.Fprintf(&b, "Sessions: %d\n", summary.TotalSessions)
	fmt.Fprintf(&b, "Total focus time: %.1f hours\n", summary.TotalHours)
	fmt.Fprintf(&b, "Average session: %.0f minutes\n", summary.AvgSessionMins)

	if len(summary.TopActivities) > 0 {
		b.WriteString("Top activities:\n")
		for _, ah := range summary.TopActivities {
			fmt.Fprintf(&b, "  - %s: %.1f hours\n", ah.Activity, ah.Hours)
		}
	}

	if summary.Trends != nil {
		tr := summary.Trends
		fmt.Fprintf(&b, "Compared to the previous period: %+d sessions, %+.1f hours (%+.1f%% focus time)\n",
			tr.SessionCountChange, tr.HoursChange, tr.PercentageChange)
	}

	writeActivityNotes(&b, summary)

	b.WriteString("\nReply in 2-3 sentences. Make one specific observation grounded in the ")
	b.WriteString("numbers or notes above; do not offer generic encouragement.")

	return b.String()
}

// writeActivityNotes appends the sample descriptions, grouped by activity in
// a stable order.
func writeActivityNotes(b *strings.Builder, summary model.Summary) {
	activities := make([]string, 0, len(summary.Activities))
	for activity, as := range summary.Activities {
		if len(as.SampleDescriptions) > 0 {
			activities = append(activities, activity)
		}
	}
	if len(activities) == 0 {
		return
	}
	sort.Strings(activities)

	b.WriteString("Session notes:\n")
	for _, activity := range activities {
		as := summary.Activities[activity]
		fmt.Fprintf(b, "  %s (%d sessions, avg %.0f min):\n", activity, as.SessionCount, as.AvgMins)
		for _, desc := range as.SampleDescriptions {
			fmt.Fprintf(b, "    - %s\n", desc)
		}
	}
}

// emptyPrompt covers a summary with no sessions: ask for a short nudge to
// start instead of analyzing data that does not exist.
func emptyPrompt(p model.TimePeriod) string {
	return fmt.Sprintf("The user logged no focus sessions during %s. "+
		"Write one short, non-judgmental sentence inviting them to start a session today. "+
		"Do not speculate about why they were away.", strings.ToLower(p.Label))
}
