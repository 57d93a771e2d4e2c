package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
    id              TEXT PRIMARY KEY,
    activity_type   TEXT NOT NULL,
    duration_secs   INTEGER NOT NULL,
    start_ms        INTEGER NOT NULL,
    end_ms          INTEGER NOT NULL,
    description     TEXT,
    created_ms      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS insights (
    insight_type    TEXT NOT NULL,
    period_start_ms INTEGER NOT NULL,
    period_end_ms   INTEGER NOT NULL,
    generated_ms    INTEGER NOT NULL,
    data_hash       TEXT NOT NULL,
    insight_text    TEXT NOT NULL,
    PRIMARY KEY (insight_type, period_start_ms, period_end_ms)
);

CREATE INDEX IF NOT EXISTS idx_sessions_start ON sessions(start_ms);
CREATE INDEX IF NOT EXISTS idx_sessions_activity ON sessions(activity_type);
CREATE INDEX IF NOT EXISTS idx_insights_generated ON insights(generated_ms);
`
