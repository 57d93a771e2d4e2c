package insight

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/airraman/focuslog/internal/model"
	"github.com/airraman/focuslog/internal/period"
	"github.com/airraman/focuslog/internal/pipeline"
)

// emptyInsightText is the deterministic response for a window with no
// sessions. A normal outcome, not an error, and never cached.
const emptyInsightText = "No focus sessions in this period yet. Start one and check back."

// failureText is the displayable message for unexpected pipeline failures.
const failureText = "Insights are unavailable right now. Your sessions are safe; try again in a bit."

// SessionSource supplies the raw session records for a time range.
// *store.Store satisfies it.
type SessionSource interface {
	SessionsByRange(start, end time.Time, activity string) ([]model.Session, error)
}

// CacheStore persists generated insights keyed by (type, period start,
// period end). *store.Store satisfies it.
type CacheStore interface {
	GetInsight(t model.InsightType, periodStart, periodEnd time.Time) (*model.CachedInsight, error)
	UpsertInsight(ci model.CachedInsight) error
}

// TextCompleter produces completion text for a prompt. The ok flag is false
// when the text is a degraded fallback. *textgen.Client satisfies it.
type TextCompleter interface {
	Complete(ctx context.Context, prompt string) (string, bool)
}

// GenerateOptions tunes a single Generate call.
type GenerateOptions struct {
	// Reference is the instant the period is resolved against. Zero means
	// time.Now().
	Reference time.Time
	// Activity filters sessions for activity-scoped insight types.
	Activity string
	// Force skips cache validation and always regenerates.
	Force bool
}

// Generator is the insight pipeline entry point. All collaborators are
// injected at construction so tests can substitute fakes without global
// state.
type Generator struct {
	sessions SessionSource
	cache    CacheStore
	text     TextCompleter
	policy   Policy
	now      func() time.Time

	mu       sync.Mutex
	inflight map[flightKey]*flight
}

// flightKey identifies one concurrent generation: the cache key.
type flightKey struct {
	insightType model.InsightType
	startMs     int64
	endMs       int64
}

type flight struct {
	done   chan struct{}
	result model.Insight
}

// New builds a Generator over the given collaborators.
func New(sessions SessionSource, cache CacheStore, text TextCompleter, policy Policy) *Generator {
	return &Generator{
		sessions: sessions,
		cache:    cache,
		text:     text,
		policy:   policy,
		now:      time.Now,
		inflight: make(map[flightKey]*flight),
	}
}

// Generate runs the full pipeline for one insight type. An unknown insight
// type is the only error that propagates: it indicates a programming error.
// Every other failure is folded into a well-formed, displayable result so
// nothing upstream ever sees a raw exception.
func (g *Generator) Generate(ctx context.Context, t model.InsightType, opts GenerateOptions) (model.Insight, error) {
	ref := opts.Reference
	if ref.IsZero() {
		ref = g.now()
	}

	p, err := period.Resolve(t, ref)
	if err != nil {
		return model.Insight{}, err
	}

	result := g.generateSafe(ctx, t, p, opts)
	return result, nil
}

// generateSafe is the recover boundary: a panic anywhere below becomes a
// success=false result.
func (g *Generator) generateSafe(ctx context.Context, t model.InsightType, p model.TimePeriod, opts GenerateOptions) (result model.Insight) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("insight: panic generating %s: %v", t, r)
			result = failureResult(t, p, fmt.Sprintf("panic: %v", r))
		}
	}()
	return g.generate(ctx, t, p, opts)
}

func (g *Generator) generate(ctx context.Context, t model.InsightType, p model.TimePeriod, opts GenerateOptions) model.Insight {
	activity := opts.Activity
	if a, ok := t.Activity(); ok && activity == "" {
		activity = a
	}

	sessions, err := g.sessions.SessionsByRange(p.Start, p.End, activity)
	if err != nil {
		return failureResult(t, p, fmt.Sprintf("reading sessions: %v", err))
	}

	if len(sessions) == 0 {
		return model.Insight{
			Success: true,
			Text:    emptyInsightText,
			Metadata: model.InsightMetadata{
				InsightType: t,
				TimePeriod:  p,
				IsEmpty:     true,
			},
		}
	}

	freshHash := pipeline.Fingerprint(sessions)

	if !opts.Force {
		cached, err := g.cache.GetInsight(t, p.Start, p.End)
		if err != nil {
			// A broken cache read is a miss, not a failure: a regenerated
			// insight beats a perfectly consistent cache.
			log.Printf("insight: cache read failed for %s, regenerating: %v", t, err)
		} else if g.policy.Valid(cached, freshHash, g.now()) {
			return cachedResult(t, p, cached)
		}
	}

	// Concurrent callers for the same key share one upstream request
	// instead of both paying for a generation and racing on the upsert.
	return g.singleFlight(t, p, func() model.Insight {
		if !opts.Force {
			// A flight that completed between our cache check and winning
			// this key has already written a fresh entry; serve it instead
			// of paying a second upstream call.
			if cached, err := g.cache.GetInsight(t, p.Start, p.End); err == nil && g.policy.Valid(cached, freshHash, g.now()) {
				return cachedResult(t, p, cached)
			}
		}
		return g.regenerate(ctx, t, p, sessions, freshHash)
	})
}

func cachedResult(t model.InsightType, p model.TimePeriod, cached *model.CachedInsight) model.Insight {
	return model.Insight{
		Success: true,
		Text:    cached.InsightText,
		Metadata: model.InsightMetadata{
			InsightType: t,
			TimePeriod:  p,
			GeneratedAt: cached.GeneratedAt,
			FromCache:   true,
		},
	}
}

// singleFlight runs fn once per cache key; callers that arrive while a
// flight is in progress wait for and reuse its result.
func (g *Generator) singleFlight(t model.InsightType, p model.TimePeriod, fn func() model.Insight) model.Insight {
	key := flightKey{insightType: t, startMs: p.Start.UnixMilli(), endMs: p.End.UnixMilli()}

	g.mu.Lock()
	if f, ok := g.inflight[key]; ok {
		g.mu.Unlock()
		<-f.done
		return f.result
	}
	f := &flight{done: make(chan struct{})}
	g.inflight[key] = f
	g.mu.Unlock()

	f.result = fn()

	g.mu.Lock()
	delete(g.inflight, key)
	g.mu.Unlock()
	close(f.done)

	return f.result
}

// regenerate aggregates, prompts, calls the text service, and persists the
// outcome. The returned text is re-read from the cache when possible so the
// caller sees exactly what the next request will be served.
func (g *Generator) regenerate(ctx context.Context, t model.InsightType, p model.TimePeriod, sessions []model.Session, freshHash string) model.Insight {
	previous, err := g.sessions.SessionsByRange(previousWindowStart(p), p.Start, "")
	if err != nil {
		// Trends are optional context; generation proceeds without them.
		log.Printf("insight: previous period read failed for %s: %v", t, err)
		previous = nil
	}

	summary := pipeline.Aggregate(sessions, pipeline.AggregateOptions{
		WithTrends:     len(previous) > 0,
		PreviousPeriod: previous,
	})

	prompt := BuildPrompt(summary, t, p)
	text, genuine := g.text.Complete(ctx, prompt)
	generatedAt := g.now()

	entry := model.CachedInsight{
		InsightType: t,
		GeneratedAt: generatedAt,
		DataHash:    freshHash,
		InsightText: text,
		PeriodStart: p.Start,
		PeriodEnd:   p.End,
	}

	if err := g.cache.UpsertInsight(entry); err != nil {
		log.Printf("insight: cache write failed for %s: %v", t, err)
	} else if stored, err := g.cache.GetInsight(t, p.Start, p.End); err == nil && stored != nil {
		// Within one call the re-read observes our own write, closing any
		// write/read skew between the returned and cached text.
		text = stored.InsightText
		generatedAt = stored.GeneratedAt
	}

	return model.Insight{
		Success: true,
		Text:    text,
		Metadata: model.InsightMetadata{
			InsightType: t,
			TimePeriod:  p,
			GeneratedAt: generatedAt,
			Fallback:    !genuine,
		},
	}
}

// CheckStale reports whether the cached entry for the type's current period
// is due a proactive background refresh.
func (g *Generator) CheckStale(t model.InsightType) (bool, error) {
	p, err := period.Resolve(t, g.now())
	if err != nil {
		return false, err
	}
	cached, err := g.cache.GetInsight(t, p.Start, p.End)
	if err != nil {
		return false, err
	}
	if cached == nil {
		// Nothing cached yet: a background pass should populate it.
		return true, nil
	}
	return g.policy.ShouldRegenerateInBackground(cached, g.now()), nil
}

// previousWindowStart mirrors the period immediately before p, with the same
// length.
func previousWindowStart(p model.TimePeriod) time.Time {
	return p.Start.Add(-p.End.Sub(p.Start))
}

func failureResult(t model.InsightType, p model.TimePeriod, errMsg string) model.Insight {
	return model.Insight{
		Success: false,
		Text:    failureText,
		Metadata: model.InsightMetadata{
			InsightType: t,
			TimePeriod:  p,
			Err:         errMsg,
		},
	}
}

// ErrNoAPIKey is returned by callers that need a configured credential
// before constructing the text client.
var ErrNoAPIKey = errors.New("insight: no API key configured")
