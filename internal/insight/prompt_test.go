package insight

import (
	"strings"
	"testing"
	"time"

	"github.com/airraman/focuslog/internal/model"
)

func sampleSummary() model.Summary {
	return model.Summary{
		TotalSessions:  5,
		TotalHours:     4.2,
		AvgSessionMins: 50,
		Activities: map[string]*model.ActivityStats{
			"coding": {
				SessionCount:       3,
				TotalHours:         3.0,
				AvgMins:            60,
				SampleDescriptions: []string{"refactored parser", "wrote tests"},
			},
			"reading": {
				SessionCount: 2,
				TotalHours:   1.2,
				AvgMins:      36,
			},
		},
		DescriptionDensity: 0.4,
		TopActivities: []model.ActivityHours{
			{Activity: "coding", Hours: 3.0},
			{Activity: "reading", Hours: 1.2},
		},
	}
}

func weekPeriod() model.TimePeriod {
	return model.TimePeriod{
		Start: time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC),
		Label: "Last 7 days",
	}
}

func TestBuildPromptQuantitativeFirst(t *testing.T) {
	prompt := BuildPrompt(sampleSummary(), model.InsightWeekly, weekPeriod())

	sessionsIdx := strings.Index(prompt, "Sessions: 5")
	notesIdx := strings.Index(prompt, "refactored parser")
	if sessionsIdx < 0 {
		t.Fatal("prompt missing session count")
	}
	if notesIdx < 0 {
		t.Fatal("prompt missing sample note")
	}
	if sessionsIdx > notesIdx {
		t.Error("quantitative summary must precede qualitative notes")
	}

	for _, want := range []string{
		"Total focus time: 4.2 hours",
		"Average session: 50 minutes",
		"coding: 3.0 hours",
		"2-3 sentences",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildPromptPerTypeIntro(t *testing.T) {
	s := sampleSummary()
	p := weekPeriod()

	cases := []struct {
		typ  model.InsightType
		want string
	}{
		{model.InsightDaily, "yesterday"},
		{model.InsightWeekly, "last week"},
		{model.InsightMonthly, "last month"},
		{model.ActivityInsightType("coding"), `"coding" work`},
	}
	for _, tc := range cases {
		prompt := BuildPrompt(s, tc.typ, p)
		if !strings.Contains(prompt, tc.want) {
			t.Errorf("%s prompt missing %q", tc.typ, tc.want)
		}
	}
}

func TestBuildPromptTrends(t *testing.T) {
	s := sampleSummary()
	s.Trends = &model.Trends{SessionCountChange: 2, HoursChange: 1.5, PercentageChange: 55.6}

	prompt := BuildPrompt(s, model.InsightWeekly, weekPeriod())
	if !strings.Contains(prompt, "+2 sessions") || !strings.Contains(prompt, "+55.6%") {
		t.Errorf("prompt missing trend line:\n%s", prompt)
	}
}

func TestBuildPromptEmptySummary(t *testing.T) {
	empty := model.Summary{Activities: map[string]*model.ActivityStats{}}

	prompt := BuildPrompt(empty, model.InsightDaily, model.TimePeriod{Label: "Yesterday"})
	if !strings.Contains(prompt, "no focus sessions") {
		t.Errorf("empty-data prompt should state the absence of data:\n%s", prompt)
	}
	if strings.Contains(prompt, "Sessions: 0") {
		t.Error("empty-data prompt must not ask the model to analyze zero data")
	}
}

func TestBuildPromptDeterministic(t *testing.T) {
	s := sampleSummary()
	p := weekPeriod()
	if BuildPrompt(s, model.InsightWeekly, p) != BuildPrompt(s, model.InsightWeekly, p) {
		t.Error("prompt rendering is not deterministic")
	}
}
