package tui

import (
	"strings"
	"testing"

	"github.com/airraman/focuslog/internal/model"
)

func TestGenNotice(t *testing.T) {
	if got := genNotice(nil); got != "" {
		t.Errorf("nil result notice = %q, want empty", got)
	}

	failed := &model.Insight{Success: false}
	if got := genNotice(failed); !strings.Contains(got, "failed") {
		t.Errorf("failure notice = %q", got)
	}

	fallback := &model.Insight{Success: true, Metadata: model.InsightMetadata{Fallback: true}}
	if got := genNotice(fallback); !strings.Contains(got, "fallback") {
		t.Errorf("fallback notice = %q", got)
	}

	empty := &model.Insight{Success: true, Metadata: model.InsightMetadata{IsEmpty: true}}
	if got := genNotice(empty); !strings.Contains(got, "No sessions") {
		t.Errorf("empty notice = %q", got)
	}

	ok := &model.Insight{Success: true, Text: "solid week"}
	if got := genNotice(ok); got != "" {
		t.Errorf("successful generation notice = %q, want empty", got)
	}
}

func TestInsightsTabShowsDegradedGeneration(t *testing.T) {
	a := App{lastGen: &model.Insight{Success: true, Metadata: model.InsightMetadata{Fallback: true}}}

	out := a.renderInsightsTab(80)
	if !strings.Contains(out, "fallback reflection") {
		t.Errorf("insights tab missing degraded notice:\n%s", out)
	}
}
