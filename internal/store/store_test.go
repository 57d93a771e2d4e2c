package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/airraman/focuslog/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "focuslog.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testSession(id, activity string, start time.Time, durationSecs int64) model.Session {
	return model.Session{
		ID:           id,
		ActivityType: activity,
		DurationSecs: durationSecs,
		StartTime:    start,
		EndTime:      start.Add(time.Duration(durationSecs) * time.Second),
		Description:  "note for " + id,
		CreatedAt:    start,
	}
}

func TestSessionRoundTrip(t *testing.T) {
	s := openTestStore(t)
	start := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

	want := testSession("s1", "coding", start, 1500)
	if err := s.SaveSession(want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.SessionsByRange(start.Add(-time.Hour), start.Add(time.Hour), "")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d sessions, want 1", len(got))
	}
	if got[0].ID != want.ID || got[0].ActivityType != want.ActivityType ||
		got[0].DurationSecs != want.DurationSecs || got[0].Description != want.Description {
		t.Errorf("round trip mismatch: %+v", got[0])
	}
	if got[0].StartTime.UnixMilli() != want.StartTime.UnixMilli() {
		t.Errorf("StartTime = %v, want %v", got[0].StartTime, want.StartTime)
	}
}

func TestSessionsByRangeEmpty(t *testing.T) {
	s := openTestStore(t)

	got, err := s.SessionsByRange(time.Now().AddDate(0, 0, -1), time.Now(), "")
	if err != nil {
		t.Fatalf("empty range must not error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %v, want empty non-nil slice", got)
	}
}

func TestSessionsByRangeHalfOpen(t *testing.T) {
	s := openTestStore(t)
	start := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)

	inside := testSession("in", "coding", start, 600)
	atEnd := testSession("at-end", "coding", end, 600)
	if err := s.SaveSession(inside); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveSession(atEnd); err != nil {
		t.Fatal(err)
	}

	got, err := s.SessionsByRange(start, end, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "in" {
		t.Errorf("half-open range violated: %v", got)
	}
}

func TestSessionsByRangeActivityFilter(t *testing.T) {
	s := openTestStore(t)
	start := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

	_ = s.SaveSession(testSession("s1", "coding", start, 600))
	_ = s.SaveSession(testSession("s2", "reading", start.Add(time.Hour), 600))

	got, err := s.SessionsByRange(start.Add(-time.Hour), start.Add(2*time.Hour), "reading")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ActivityType != "reading" {
		t.Errorf("activity filter failed: %v", got)
	}
}

func TestSaveSessionRejectsInvalid(t *testing.T) {
	s := openTestStore(t)

	bad := model.Session{ID: "x", ActivityType: "coding", DurationSecs: 0}
	if err := s.SaveSession(bad); err == nil {
		t.Fatal("expected validation error for zero duration")
	}

	count, err := s.SessionCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("invalid session was persisted, count = %d", count)
	}
}

func TestActivitiesOrderedByDuration(t *testing.T) {
	s := openTestStore(t)
	start := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

	_ = s.SaveSession(testSession("s1", "reading", start, 600))
	_ = s.SaveSession(testSession("s2", "coding", start.Add(time.Hour), 7200))

	got, err := s.Activities()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "coding" || got[1] != "reading" {
		t.Errorf("Activities = %v, want [coding reading]", got)
	}
}

func TestInsightRoundTripAndUpsert(t *testing.T) {
	s := openTestStore(t)

	periodStart := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)

	entry := model.CachedInsight{
		InsightType: model.InsightWeekly,
		GeneratedAt: time.Date(2025, 6, 18, 8, 0, 0, 0, time.UTC),
		DataHash:    "h1",
		InsightText: "You focused most in the mornings.",
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	}
	if err := s.UpsertInsight(entry); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := s.GetInsight(model.InsightWeekly, periodStart, periodEnd)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("got nil after upsert")
	}
	if got.DataHash != "h1" || got.InsightText != entry.InsightText {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.GeneratedAt.UnixMilli() != entry.GeneratedAt.UnixMilli() {
		t.Errorf("GeneratedAt = %v, want %v", got.GeneratedAt, entry.GeneratedAt)
	}

	// Second upsert for the same key overwrites, never duplicates.
	entry.DataHash = "h2"
	entry.InsightText = "Updated."
	if err := s.UpsertInsight(entry); err != nil {
		t.Fatal(err)
	}
	got, err = s.GetInsight(model.InsightWeekly, periodStart, periodEnd)
	if err != nil {
		t.Fatal(err)
	}
	if got.DataHash != "h2" || got.InsightText != "Updated." {
		t.Errorf("upsert did not overwrite: %+v", got)
	}
}

func TestGetInsightMiss(t *testing.T) {
	s := openTestStore(t)

	got, err := s.GetInsight(model.InsightDaily, time.UnixMilli(0), time.UnixMilli(1))
	if err != nil {
		t.Fatalf("miss must not error: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil on miss", got)
	}
}

func TestPruneInsights(t *testing.T) {
	s := openTestStore(t)
	now := time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC)

	old := model.CachedInsight{
		InsightType: model.InsightDaily,
		GeneratedAt: now.AddDate(0, 0, -90),
		DataHash:    "h-old",
		InsightText: "old",
		PeriodStart: now.AddDate(0, 0, -91),
		PeriodEnd:   now.AddDate(0, 0, -90),
	}
	fresh := model.CachedInsight{
		InsightType: model.InsightWeekly,
		GeneratedAt: now,
		DataHash:    "h-new",
		InsightText: "new",
		PeriodStart: now.AddDate(0, 0, -7),
		PeriodEnd:   now,
	}
	if err := s.UpsertInsight(old); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertInsight(fresh); err != nil {
		t.Fatal(err)
	}

	n, err := s.PruneInsights(now.AddDate(0, 0, -30))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("pruned %d rows, want 1", n)
	}

	got, err := s.GetInsight(model.InsightWeekly, fresh.PeriodStart, fresh.PeriodEnd)
	if err != nil || got == nil {
		t.Errorf("fresh row must survive prune: %v %v", got, err)
	}
}
