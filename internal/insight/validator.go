// Package insight wires period resolution, aggregation, caching, and text
// generation into the end-to-end insight pipeline.
package insight

import (
	"time"

	"github.com/airraman/focuslog/internal/model"
)

// backgroundRefreshFraction of the freshness window after which a proactive
// regeneration is advised ahead of the hard expiry.
const backgroundRefreshFraction = 0.8

// Policy maps insight types to the maximum age a cached insight may reach
// before being treated as stale regardless of data changes. Configuration
// data, not state.
type Policy struct {
	Daily    time.Duration
	Weekly   time.Duration
	Monthly  time.Duration
	Activity time.Duration
}

// DefaultPolicy returns the standard freshness windows.
func DefaultPolicy() Policy {
	return Policy{
		Daily:    24 * time.Hour,
		Weekly:   7 * 24 * time.Hour,
		Monthly:  30 * 24 * time.Hour,
		Activity: 7 * 24 * time.Hour,
	}
}

// MaxAge returns the freshness window for an insight type. Activity-scoped
// types share one window whatever their activity id.
func (p Policy) MaxAge(t model.InsightType) time.Duration {
	switch t {
	case model.InsightDaily:
		return p.Daily
	case model.InsightWeekly:
		return p.Weekly
	case model.InsightMonthly:
		return p.Monthly
	}
	return p.Activity
}

// Valid decides whether a cached entry can be served. In order: a missing
// entry is invalid; a fingerprint mismatch is invalid however young the
// entry, because the underlying sessions changed; an entry older than the
// freshness window is invalid even when the data did not change.
func (p Policy) Valid(cached *model.CachedInsight, freshHash string, now time.Time) bool {
	if cached == nil {
		return false
	}
	if cached.DataHash != freshHash {
		return false
	}
	if now.Sub(cached.GeneratedAt) >= p.MaxAge(cached.InsightType) {
		return false
	}
	return true
}

// ShouldRegenerateInBackground advises a proactive refresh once the entry
// has aged past 80% of its freshness window. Advisory only; serving the
// entry remains correct until Valid says otherwise.
func (p Policy) ShouldRegenerateInBackground(cached *model.CachedInsight, now time.Time) bool {
	if cached == nil {
		return false
	}
	threshold := time.Duration(float64(p.MaxAge(cached.InsightType)) * backgroundRefreshFraction)
	return now.Sub(cached.GeneratedAt) >= threshold
}
