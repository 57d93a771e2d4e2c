// Package model defines domain types for focuslog sessions and insights.
package model

import (
	"errors"
	"strings"
	"time"
)

// Session is one completed focus session. Records are owned by the session
// store; the insight pipeline reads them but never mutates them.
type Session struct {
	ID           string
	ActivityType string
	// DurationSecs is authoritative for aggregation. It is not derived from
	// EndTime-StartTime because paused sessions diverge from wall time.
	DurationSecs int64
	StartTime    time.Time
	EndTime      time.Time
	Description  string
	CreatedAt    time.Time
}

// Validate checks the session construction invariants.
func (s Session) Validate() error {
	if s.ID == "" {
		return errors.New("model: session id is empty")
	}
	if strings.TrimSpace(s.ActivityType) == "" {
		return errors.New("model: activity type is empty")
	}
	if s.DurationSecs <= 0 {
		return errors.New("model: duration must be positive")
	}
	if s.EndTime.Before(s.StartTime) {
		return errors.New("model: end time before start time")
	}
	return nil
}

// HasDescription reports whether the session carries a non-empty note.
func (s Session) HasDescription() bool {
	return strings.TrimSpace(s.Description) != ""
}
