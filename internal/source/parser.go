// Package source parses focuslog JSONL session exports for import into the
// local store.
package source

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/airraman/focuslog/internal/model"
)

// maxLineSize bounds a single export line.
const maxLineSize = 1 << 20 // 1 MB

// ParseFile reads a JSONL export. Malformed lines and invalid records are
// skipped and counted, never fatal; only an unreadable file sets Err.
func ParseFile(path string) ParseResult {
	f, err := os.Open(path) //nolint:gosec // path is a user-supplied import file
	if err != nil {
		return ParseResult{Err: fmt.Errorf("opening export: %w", err)}
	}
	defer func() { _ = f.Close() }()

	var result ParseResult

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var raw RawSession
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			result.ParseErrors++
			continue
		}
		if toSession(raw).Validate() != nil {
			result.ParseErrors++
			continue
		}

		result.Sessions = append(result.Sessions, SessionRecord{Line: lineNo, Raw: raw})
	}

	if err := scanner.Err(); err != nil {
		result.Err = fmt.Errorf("reading export: %w", err)
	}
	return result
}

// ToSession converts a raw export record into the domain type.
func (r SessionRecord) ToSession() model.Session {
	return toSession(r.Raw)
}

func toSession(raw RawSession) model.Session {
	s := model.Session{
		ID:           raw.ID,
		ActivityType: strings.TrimSpace(raw.ActivityType),
		DurationSecs: raw.DurationSeconds,
		StartTime:    time.UnixMilli(raw.StartTime),
		EndTime:      time.UnixMilli(raw.EndTime),
		Description:  raw.Description,
	}
	if raw.CreatedAt > 0 {
		s.CreatedAt = time.UnixMilli(raw.CreatedAt)
	} else {
		s.CreatedAt = s.EndTime
	}
	return s
}
