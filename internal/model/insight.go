package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownInsightType indicates an insight type string the resolver does
// not recognize. This is a programming error, not a runtime condition, so it
// propagates to the caller instead of degrading into a fallback result.
var ErrUnknownInsightType = errors.New("model: unknown insight type")

// InsightType identifies one kind of generated insight.
type InsightType string

// The fixed insight types. Activity-scoped types are constructed with
// ActivityInsightType and carry the activity id in the middle segment.
const (
	InsightDaily   InsightType = "daily"
	InsightWeekly  InsightType = "weekly"
	InsightMonthly InsightType = "monthly"
)

const (
	activityPrefix = "activity_"
	activitySuffix = "_week"
)

// ActivityInsightType returns the insight type for a single activity's
// rolling week, e.g. "activity_coding_week".
func ActivityInsightType(activity string) InsightType {
	return InsightType(activityPrefix + activity + activitySuffix)
}

// Activity extracts the activity id from an activity-scoped type.
// The second return is false for the fixed period types.
func (t InsightType) Activity() (string, bool) {
	s := string(t)
	if !strings.HasPrefix(s, activityPrefix) || !strings.HasSuffix(s, activitySuffix) {
		return "", false
	}
	id := s[len(activityPrefix) : len(s)-len(activitySuffix)]
	if id == "" {
		return "", false
	}
	return id, true
}

// Known reports whether t is one of the recognized insight types.
func (t InsightType) Known() bool {
	switch t {
	case InsightDaily, InsightWeekly, InsightMonthly:
		return true
	}
	_, ok := t.Activity()
	return ok
}

// TimePeriod is a half-open [Start, End) window with a display label.
// Periods are deterministic for a given (type, reference instant) because
// their bounds are part of the insight cache key.
type TimePeriod struct {
	Start time.Time
	End   time.Time
	Label string
}

// CachedInsight is one row of the insight cache. At most one row exists per
// (InsightType, PeriodStart, PeriodEnd); regeneration overwrites in place.
type CachedInsight struct {
	InsightType InsightType
	GeneratedAt time.Time
	DataHash    string
	InsightText string
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// Insight is the result shape the display layer consumes. Failures inside
// the pipeline are folded into Success=false with a displayable Text rather
// than surfacing raw errors.
type Insight struct {
	Success  bool
	Text     string
	Metadata InsightMetadata
}

// InsightMetadata annotates how an insight result was produced.
type InsightMetadata struct {
	InsightType InsightType
	TimePeriod  TimePeriod
	GeneratedAt time.Time
	FromCache   bool
	IsEmpty     bool
	// Fallback marks text that came from the text client's degraded path,
	// not a genuine model completion.
	Fallback bool
	Err      string
}

func (m InsightMetadata) String() string {
	return fmt.Sprintf("%s %s [cache=%t empty=%t]", m.InsightType, m.TimePeriod.Label, m.FromCache, m.IsEmpty)
}
