// Package store provides the SQLite-backed session history and insight cache.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/airraman/focuslog/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Store wraps the focuslog database. It holds both the session history and
// the insight cache so the generate flow's upsert-then-reread happens against
// a single writer.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at the given path.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSession inserts or replaces one session record. Invalid records are
// rejected before touching the database.
func (s *Store) SaveSession(sess model.Session) error {
	if err := sess.Validate(); err != nil {
		return err
	}

	_, err := s.db.Exec(`INSERT OR REPLACE INTO sessions
		(id, activity_type, duration_secs, start_ms, end_ms, description, created_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.ActivityType, sess.DurationSecs,
		sess.StartTime.UnixMilli(), sess.EndTime.UnixMilli(),
		sess.Description, sess.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// SessionsByRange returns sessions whose start time falls within
// [start, end), optionally filtered to one activity. A range with no data
// yields an empty slice, not an error.
func (s *Store) SessionsByRange(start, end time.Time, activity string) ([]model.Session, error) {
	query := `SELECT id, activity_type, duration_secs, start_ms, end_ms, description, created_ms
		FROM sessions WHERE start_ms >= ? AND start_ms < ?`
	args := []any{start.UnixMilli(), end.UnixMilli()}
	if activity != "" {
		query += ` AND activity_type = ?`
		args = append(args, activity)
	}
	query += ` ORDER BY start_ms`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	sessions := []model.Session{}
	for rows.Next() {
		var sess model.Session
		var startMs, endMs, createdMs int64
		var desc sql.NullString

		if err := rows.Scan(&sess.ID, &sess.ActivityType, &sess.DurationSecs,
			&startMs, &endMs, &desc, &createdMs); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}

		sess.StartTime = time.UnixMilli(startMs)
		sess.EndTime = time.UnixMilli(endMs)
		sess.CreatedAt = time.UnixMilli(createdMs)
		if desc.Valid {
			sess.Description = desc.String
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// RecentSessions returns the newest sessions first, capped at limit.
func (s *Store) RecentSessions(limit int) ([]model.Session, error) {
	end := time.Now().Add(24 * time.Hour)
	sessions, err := s.SessionsByRange(time.UnixMilli(0), end, "")
	if err != nil {
		return nil, err
	}
	// SessionsByRange sorts ascending; walk from the back.
	for i, j := 0, len(sessions)-1; i < j; i, j = i+1, j-1 {
		sessions[i], sessions[j] = sessions[j], sessions[i]
	}
	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}
	return sessions, nil
}

// DeleteSession removes one session by id.
func (s *Store) DeleteSession(id string) error {
	_, err := s.db.Exec("DELETE FROM sessions WHERE id = ?", id)
	return err
}

// SessionCount returns the number of stored sessions.
func (s *Store) SessionCount() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&count)
	return count, err
}

// Activities returns the distinct activity types present in the history,
// ordered by total recorded duration descending.
func (s *Store) Activities() ([]string, error) {
	rows, err := s.db.Query(`SELECT activity_type FROM sessions
		GROUP BY activity_type ORDER BY SUM(duration_secs) DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying activities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var activities []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// GetInsight looks up the cache row for a key. A miss returns (nil, nil).
func (s *Store) GetInsight(t model.InsightType, periodStart, periodEnd time.Time) (*model.CachedInsight, error) {
	row := s.db.QueryRow(`SELECT insight_type, period_start_ms, period_end_ms,
		generated_ms, data_hash, insight_text
		FROM insights WHERE insight_type = ? AND period_start_ms = ? AND period_end_ms = ?`,
		string(t), periodStart.UnixMilli(), periodEnd.UnixMilli())

	var ci model.CachedInsight
	var typ string
	var startMs, endMs, genMs int64
	err := row.Scan(&typ, &startMs, &endMs, &genMs, &ci.DataHash, &ci.InsightText)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading insight: %w", err)
	}

	ci.InsightType = model.InsightType(typ)
	ci.PeriodStart = time.UnixMilli(startMs)
	ci.PeriodEnd = time.UnixMilli(endMs)
	ci.GeneratedAt = time.UnixMilli(genMs)
	return &ci, nil
}

// UpsertInsight writes the cache row for the entry's key, overwriting any
// existing row so at most one row exists per key.
func (s *Store) UpsertInsight(ci model.CachedInsight) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO insights
		(insight_type, period_start_ms, period_end_ms, generated_ms, data_hash, insight_text)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(ci.InsightType), ci.PeriodStart.UnixMilli(), ci.PeriodEnd.UnixMilli(),
		ci.GeneratedAt.UnixMilli(), ci.DataHash, ci.InsightText,
	)
	if err != nil {
		return fmt.Errorf("upserting insight: %w", err)
	}
	return nil
}

// LatestInsights returns the most recently generated row per insight type.
func (s *Store) LatestInsights() ([]model.CachedInsight, error) {
	rows, err := s.db.Query(`SELECT insight_type, period_start_ms, period_end_ms,
		generated_ms, data_hash, insight_text
		FROM insights GROUP BY insight_type HAVING generated_ms = MAX(generated_ms)
		ORDER BY insight_type`)
	if err != nil {
		return nil, fmt.Errorf("querying insights: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var insights []model.CachedInsight
	for rows.Next() {
		var ci model.CachedInsight
		var typ string
		var startMs, endMs, genMs int64
		if err := rows.Scan(&typ, &startMs, &endMs, &genMs, &ci.DataHash, &ci.InsightText); err != nil {
			return nil, err
		}
		ci.InsightType = model.InsightType(typ)
		ci.PeriodStart = time.UnixMilli(startMs)
		ci.PeriodEnd = time.UnixMilli(endMs)
		ci.GeneratedAt = time.UnixMilli(genMs)
		insights = append(insights, ci)
	}
	return insights, rows.Err()
}

// PruneInsights deletes cache rows generated before the cutoff and reports
// how many were removed.
func (s *Store) PruneInsights(olderThan time.Time) (int64, error) {
	res, err := s.db.Exec("DELETE FROM insights WHERE generated_ms < ?", olderThan.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("pruning insights: %w", err)
	}
	return res.RowsAffected()
}
