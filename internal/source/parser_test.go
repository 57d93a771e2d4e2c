package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeExport creates a temp JSONL export file from the given lines.
func writeExport(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.jsonl")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseFileValidRecords(t *testing.T) {
	path := writeExport(t,
		`{"id":"s1","activityType":"coding","durationSeconds":1500,"startTime":1718010000000,"endTime":1718011500000,"description":"deep work"}`,
		`{"id":"s2","activityType":"reading","durationSeconds":900,"startTime":1718020000000,"endTime":1718020900000}`,
	)

	result := ParseFile(path)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if len(result.Sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(result.Sessions))
	}
	if result.ParseErrors != 0 {
		t.Errorf("ParseErrors = %d, want 0", result.ParseErrors)
	}

	s := result.Sessions[0].ToSession()
	if s.ID != "s1" || s.ActivityType != "coding" || s.DurationSecs != 1500 {
		t.Errorf("session = %+v", s)
	}
	if s.Description != "deep work" {
		t.Errorf("Description = %q", s.Description)
	}
	if !s.StartTime.Equal(time.UnixMilli(1718010000000)) {
		t.Errorf("StartTime = %v", s.StartTime)
	}
	// CreatedAt falls back to the end time when absent from the export.
	if !s.CreatedAt.Equal(s.EndTime) {
		t.Errorf("CreatedAt = %v, want end time", s.CreatedAt)
	}
}

func TestParseFileSkipsMalformedLines(t *testing.T) {
	path := writeExport(t,
		`not json at all`,
		`{"id":"s1","activityType":"coding","durationSeconds":1500,"startTime":1718010000000,"endTime":1718011500000}`,
		`{"id":"s2","broken json`,
	)

	result := ParseFile(path)
	if result.Err != nil {
		t.Fatalf("per-line problems must not be fatal: %v", result.Err)
	}
	if len(result.Sessions) != 1 {
		t.Errorf("got %d sessions, want 1", len(result.Sessions))
	}
	if result.ParseErrors != 2 {
		t.Errorf("ParseErrors = %d, want 2", result.ParseErrors)
	}
}

func TestParseFileSkipsInvalidRecords(t *testing.T) {
	path := writeExport(t,
		// Zero duration violates the session invariant.
		`{"id":"s1","activityType":"coding","durationSeconds":0,"startTime":1718010000000,"endTime":1718010000000}`,
		// End before start.
		`{"id":"s2","activityType":"coding","durationSeconds":60,"startTime":1718011500000,"endTime":1718010000000}`,
		// Missing activity.
		`{"id":"s3","activityType":"  ","durationSeconds":60,"startTime":1718010000000,"endTime":1718010060000}`,
	)

	result := ParseFile(path)
	if result.Err != nil {
		t.Fatal(result.Err)
	}
	if len(result.Sessions) != 0 {
		t.Errorf("invalid records were accepted: %v", result.Sessions)
	}
	if result.ParseErrors != 3 {
		t.Errorf("ParseErrors = %d, want 3", result.ParseErrors)
	}
}

func TestParseFileEmpty(t *testing.T) {
	path := writeExport(t)

	result := ParseFile(path)
	if result.Err != nil {
		t.Fatalf("empty file must not error: %v", result.Err)
	}
	if len(result.Sessions) != 0 || result.ParseErrors != 0 {
		t.Errorf("result = %+v, want empty", result)
	}
}

func TestParseFileMissing(t *testing.T) {
	result := ParseFile(filepath.Join(t.TempDir(), "nope.jsonl"))
	if result.Err == nil {
		t.Fatal("expected file-level error for missing file")
	}
}

func TestParseFileBlankLinesIgnored(t *testing.T) {
	path := writeExport(t,
		``,
		`{"id":"s1","activityType":"coding","durationSeconds":60,"startTime":1718010000000,"endTime":1718010060000}`,
		`   `,
	)

	result := ParseFile(path)
	if result.ParseErrors != 0 {
		t.Errorf("blank lines counted as errors: %d", result.ParseErrors)
	}
	if len(result.Sessions) != 1 {
		t.Errorf("got %d sessions, want 1", len(result.Sessions))
	}
}
