package insight

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/airraman/focuslog/internal/model"
	"github.com/airraman/focuslog/internal/pipeline"
	"github.com/airraman/focuslog/internal/textgen"
)

type fakeSource struct {
	mu       sync.Mutex
	sessions []model.Session
	err      error
	calls    int
}

func (f *fakeSource) SessionsByRange(start, end time.Time, activity string) ([]model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Session
	for _, s := range f.sessions {
		if s.StartTime.Before(start) || !s.StartTime.Before(end) {
			continue
		}
		if activity != "" && s.ActivityType != activity {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

type cacheKey struct {
	t        model.InsightType
	startMs  int64
	endMs    int64
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[cacheKey]model.CachedInsight
	getErr  error
	putErr  error
	puts    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[cacheKey]model.CachedInsight)}
}

func (f *fakeCache) GetInsight(t model.InsightType, start, end time.Time) (*model.CachedInsight, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	ci, ok := f.entries[cacheKey{t, start.UnixMilli(), end.UnixMilli()}]
	if !ok {
		return nil, nil
	}
	return &ci, nil
}

func (f *fakeCache) UpsertInsight(ci model.CachedInsight) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	f.puts++
	f.entries[cacheKey{ci.InsightType, ci.PeriodStart.UnixMilli(), ci.PeriodEnd.UnixMilli()}] = ci
	return nil
}

type fakeText struct {
	mu    sync.Mutex
	calls int
	text  string
	ok    bool
	delay time.Duration
}

func (f *fakeText) Complete(_ context.Context, _ string) (string, bool) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.text, f.ok
}

// reference instant: Wednesday. The weekly window is Jun 9 - Jun 16.
var testRef = time.Date(2025, 6, 18, 14, 0, 0, 0, time.UTC)

func weekSession(id string, day int, activity string) model.Session {
	start := time.Date(2025, 6, day, 9, 0, 0, 0, time.UTC)
	return model.Session{
		ID:           id,
		ActivityType: activity,
		DurationSecs: 1500,
		StartTime:    start,
		EndTime:      start.Add(25 * time.Minute),
		CreatedAt:    start,
	}
}

func newTestGenerator(src *fakeSource, cache *fakeCache, text *fakeText) *Generator {
	g := New(src, cache, text, DefaultPolicy())
	g.now = func() time.Time { return testRef }
	return g
}

func TestGenerateUnknownTypePropagates(t *testing.T) {
	g := newTestGenerator(&fakeSource{}, newFakeCache(), &fakeText{text: "x", ok: true})

	_, err := g.Generate(context.Background(), model.InsightType("hourly"), GenerateOptions{})
	if !errors.Is(err, model.ErrUnknownInsightType) {
		t.Fatalf("err = %v, want ErrUnknownInsightType", err)
	}
}

func TestGenerateEmptyWindow(t *testing.T) {
	text := &fakeText{text: "x", ok: true}
	cache := newFakeCache()
	g := newTestGenerator(&fakeSource{}, cache, text)

	got, err := g.Generate(context.Background(), model.InsightWeekly, GenerateOptions{Reference: testRef})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Success || !got.Metadata.IsEmpty {
		t.Errorf("result = %+v, want successful empty result", got)
	}
	if text.calls != 0 {
		t.Errorf("text service called %d times for an empty window", text.calls)
	}
	if cache.puts != 0 {
		t.Error("empty result must not be cached")
	}
}

func TestGenerateMissThenHit(t *testing.T) {
	src := &fakeSource{sessions: []model.Session{weekSession("s1", 10, "coding")}}
	cache := newFakeCache()
	text := &fakeText{text: "You were consistent.", ok: true}
	g := newTestGenerator(src, cache, text)

	first, err := g.Generate(context.Background(), model.InsightWeekly, GenerateOptions{Reference: testRef})
	if err != nil {
		t.Fatal(err)
	}
	if !first.Success || first.Metadata.FromCache {
		t.Errorf("first = %+v, want fresh success", first)
	}
	if first.Text != "You were consistent." {
		t.Errorf("Text = %q", first.Text)
	}
	if cache.puts != 1 {
		t.Errorf("puts = %d, want 1", cache.puts)
	}

	second, err := g.Generate(context.Background(), model.InsightWeekly, GenerateOptions{Reference: testRef})
	if err != nil {
		t.Fatal(err)
	}
	if !second.Metadata.FromCache {
		t.Errorf("second = %+v, want cache hit", second)
	}
	if text.calls != 1 {
		t.Errorf("text calls = %d, want 1", text.calls)
	}
}

func TestGenerateDataChangeInvalidatesCache(t *testing.T) {
	src := &fakeSource{sessions: []model.Session{weekSession("s1", 10, "coding")}}
	cache := newFakeCache()
	text := &fakeText{text: "v1", ok: true}
	g := newTestGenerator(src, cache, text)

	if _, err := g.Generate(context.Background(), model.InsightWeekly, GenerateOptions{Reference: testRef}); err != nil {
		t.Fatal(err)
	}

	// The user logs another session inside the window.
	src.mu.Lock()
	src.sessions = append(src.sessions, weekSession("s2", 11, "reading"))
	src.mu.Unlock()
	text.text = "v2"

	got, err := g.Generate(context.Background(), model.InsightWeekly, GenerateOptions{Reference: testRef})
	if err != nil {
		t.Fatal(err)
	}
	if got.Metadata.FromCache {
		t.Error("served stale cache after underlying data changed")
	}
	if got.Text != "v2" {
		t.Errorf("Text = %q, want v2", got.Text)
	}
	if text.calls != 2 {
		t.Errorf("text calls = %d, want 2", text.calls)
	}
}

func TestGenerateForceRegenerates(t *testing.T) {
	src := &fakeSource{sessions: []model.Session{weekSession("s1", 10, "coding")}}
	cache := newFakeCache()
	text := &fakeText{text: "v1", ok: true}
	g := newTestGenerator(src, cache, text)

	if _, err := g.Generate(context.Background(), model.InsightWeekly, GenerateOptions{Reference: testRef}); err != nil {
		t.Fatal(err)
	}

	if _, err := g.Generate(context.Background(), model.InsightWeekly, GenerateOptions{Reference: testRef, Force: true}); err != nil {
		t.Fatal(err)
	}
	if text.calls != 2 {
		t.Errorf("text calls = %d, want 2 with Force", text.calls)
	}
}

func TestGenerateSessionReadFailure(t *testing.T) {
	src := &fakeSource{err: errors.New("disk gone")}
	g := newTestGenerator(src, newFakeCache(), &fakeText{text: "x", ok: true})

	got, err := g.Generate(context.Background(), model.InsightWeekly, GenerateOptions{Reference: testRef})
	if err != nil {
		t.Fatalf("pipeline failures must not propagate as errors: %v", err)
	}
	if got.Success {
		t.Error("Success = true after a session read failure")
	}
	if got.Text == "" || got.Metadata.Err == "" {
		t.Errorf("failure result must stay displayable: %+v", got)
	}
}

func TestGenerateCacheReadFailureTreatedAsMiss(t *testing.T) {
	src := &fakeSource{sessions: []model.Session{weekSession("s1", 10, "coding")}}
	cache := newFakeCache()
	cache.getErr = errors.New("cache corrupt")
	text := &fakeText{text: "fresh", ok: true}
	g := newTestGenerator(src, cache, text)

	got, err := g.Generate(context.Background(), model.InsightWeekly, GenerateOptions{Reference: testRef})
	if err != nil {
		t.Fatal(err)
	}
	if !got.Success || got.Text != "fresh" {
		t.Errorf("cache read failure should regenerate, got %+v", got)
	}
}

func TestGenerateCacheWriteFailureStillReturnsText(t *testing.T) {
	src := &fakeSource{sessions: []model.Session{weekSession("s1", 10, "coding")}}
	cache := newFakeCache()
	cache.putErr = errors.New("disk full")
	text := &fakeText{text: "fresh", ok: true}
	g := newTestGenerator(src, cache, text)

	got, err := g.Generate(context.Background(), model.InsightWeekly, GenerateOptions{Reference: testRef})
	if err != nil {
		t.Fatal(err)
	}
	if !got.Success || got.Text != "fresh" {
		t.Errorf("cache write failure should not lose the insight, got %+v", got)
	}
}

func TestGenerateFallbackMarked(t *testing.T) {
	src := &fakeSource{sessions: []model.Session{weekSession("s1", 10, "coding")}}
	cache := newFakeCache()
	text := &fakeText{text: textgen.FallbackText, ok: false}
	g := newTestGenerator(src, cache, text)

	got, err := g.Generate(context.Background(), model.InsightWeekly, GenerateOptions{Reference: testRef})
	if err != nil {
		t.Fatal(err)
	}
	if !got.Metadata.Fallback {
		t.Error("degraded completion not marked as fallback")
	}
	// Fallback text is still cached so the UI always has something to show.
	if cache.puts != 1 {
		t.Errorf("puts = %d, want 1", cache.puts)
	}
}

func TestGenerateActivityScoped(t *testing.T) {
	src := &fakeSource{sessions: []model.Session{
		weekSession("s1", 16, "coding"),
		weekSession("s2", 16, "reading"),
	}}
	cache := newFakeCache()
	text := &fakeText{text: "coding insight", ok: true}
	g := newTestGenerator(src, cache, text)

	got, err := g.Generate(context.Background(), model.ActivityInsightType("coding"), GenerateOptions{Reference: testRef})
	if err != nil {
		t.Fatal(err)
	}
	if !got.Success || got.Metadata.IsEmpty {
		t.Fatalf("activity insight failed: %+v", got)
	}
}

func TestGenerateSingleFlight(t *testing.T) {
	src := &fakeSource{sessions: []model.Session{weekSession("s1", 10, "coding")}}
	cache := newFakeCache()
	text := &fakeText{text: "shared", ok: true, delay: 50 * time.Millisecond}
	g := newTestGenerator(src, cache, text)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]model.Insight, callers)
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			got, err := g.Generate(context.Background(), model.InsightWeekly, GenerateOptions{Reference: testRef})
			if err != nil {
				t.Errorf("caller %d: %v", i, err)
				return
			}
			results[i] = got
		}(i)
	}
	wg.Wait()

	// Callers that raced past the cache check share one upstream request.
	if text.calls != 1 {
		t.Errorf("text calls = %d, want 1 under concurrent identical-key callers", text.calls)
	}
	for i, r := range results {
		if r.Text != "shared" {
			t.Errorf("caller %d text = %q, want shared result", i, r.Text)
		}
	}
}

func TestCheckStale(t *testing.T) {
	src := &fakeSource{sessions: []model.Session{weekSession("s1", 10, "coding")}}
	cache := newFakeCache()
	text := &fakeText{text: "x", ok: true}
	g := newTestGenerator(src, cache, text)

	// Nothing cached yet: a background pass should populate it.
	stale, err := g.CheckStale(model.InsightWeekly)
	if err != nil {
		t.Fatal(err)
	}
	if !stale {
		t.Error("empty cache should report stale")
	}

	if _, err := g.Generate(context.Background(), model.InsightWeekly, GenerateOptions{Reference: testRef}); err != nil {
		t.Fatal(err)
	}

	stale, err = g.CheckStale(model.InsightWeekly)
	if err != nil {
		t.Fatal(err)
	}
	if stale {
		t.Error("freshly generated insight reported stale")
	}
}

// lateCache misses on the first read and serves a fixed entry afterwards,
// modeling a concurrent generation for the same key completing between the
// pre-flight cache check and winning the flight slot.
type lateCache struct {
	fakeCache
	entry model.CachedInsight
	gets  int
}

func (c *lateCache) GetInsight(_ model.InsightType, _, _ time.Time) (*model.CachedInsight, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.gets == 1 {
		return nil, nil
	}
	e := c.entry
	return &e, nil
}

func TestGenerateReusesEntryWrittenWhileQueued(t *testing.T) {
	sess := weekSession("s1", 10, "coding")
	src := &fakeSource{sessions: []model.Session{sess}}
	cache := &lateCache{
		fakeCache: fakeCache{entries: make(map[cacheKey]model.CachedInsight)},
		entry: model.CachedInsight{
			InsightType: model.InsightWeekly,
			GeneratedAt: testRef.Add(-time.Hour),
			DataHash:    pipeline.Fingerprint([]model.Session{sess}),
			InsightText: "already generated",
		},
	}
	text := &fakeText{text: "fresh", ok: true}
	g := New(src, cache, text, DefaultPolicy())
	g.now = func() time.Time { return testRef }

	got, err := g.Generate(context.Background(), model.InsightWeekly, GenerateOptions{Reference: testRef})
	if err != nil {
		t.Fatal(err)
	}
	if !got.Metadata.FromCache || got.Text != "already generated" {
		t.Errorf("result = %+v, want the entry the earlier flight wrote", got)
	}
	if text.calls != 0 {
		t.Errorf("text calls = %d, want 0", text.calls)
	}
	if cache.puts != 0 {
		t.Errorf("puts = %d, want 0", cache.puts)
	}
}
