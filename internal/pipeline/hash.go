package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"github.com/airraman/focuslog/internal/model"
)

// Fingerprint computes a deterministic digest of a session set, used by the
// insight cache to detect that the underlying data changed independently of
// elapsed time. The digest is order-independent: the same sessions in any
// fetch order hash identically. Any change to a session's identity, duration,
// activity, description, or bounds produces a different digest.
//
// This is a change detector, not a security primitive.
func Fingerprint(sessions []model.Session) string {
	lines := make([]string, 0, len(sessions))
	for _, s := range sessions {
		var b strings.Builder
		b.WriteString(s.ID)
		b.WriteByte('|')
		b.WriteString(s.ActivityType)
		b.WriteByte('|')
		b.WriteString(strconv.FormatInt(s.DurationSecs, 10))
		b.WriteByte('|')
		b.WriteString(strconv.FormatInt(s.StartTime.UnixMilli(), 10))
		b.WriteByte('|')
		b.WriteString(strconv.FormatInt(s.EndTime.UnixMilli(), 10))
		b.WriteByte('|')
		b.WriteString(s.Description)
		lines = append(lines, b.String())
	}
	sort.Strings(lines)

	h := sha256.New()
	for _, line := range lines {
		h.Write([]byte(line))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
