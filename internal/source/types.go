package source

// RawSession is a single line in a focuslog JSONL session export, the
// interchange format the mobile app writes. Timestamps are epoch
// milliseconds.
type RawSession struct {
	ID              string `json:"id"`
	ActivityType    string `json:"activityType"`
	DurationSeconds int64  `json:"durationSeconds"`
	StartTime       int64  `json:"startTime"`
	EndTime         int64  `json:"endTime"`
	Description     string `json:"description,omitempty"`
	CreatedAt       int64  `json:"createdAt,omitempty"`
}

// ParseResult holds the outcome of parsing one export file.
type ParseResult struct {
	// Sessions are the valid records, in file order.
	Sessions []SessionRecord
	// ParseErrors counts lines that were skipped: malformed JSON or records
	// violating a construction invariant.
	ParseErrors int
	// Err is set only for file-level failures; per-line problems never
	// abort the import.
	Err error
}

// SessionRecord pairs a parsed session with its source line for error
// reporting.
type SessionRecord struct {
	Line int
	Raw  RawSession
}
