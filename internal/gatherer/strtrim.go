package gatherer

import (
	"strings"

	"github.com/programme-lv/harness/api"
)

// TrimStrToRect keeps at most maxHeight lines of at most maxWidth bytes.
func TrimStrToRect(s string, maxHeight int, maxWidth int) string {
	if s == "" {
		return ""
	}
	var res strings.Builder
	lines := strings.Split(s, "\n")
	cut := len(lines) > maxHeight
	if cut {
		lines = lines[:maxHeight]
	}
	for i, line := range lines {
		if i > 0 {
			res.WriteByte('\n')
		}
		if len(line) > maxWidth {
			res.WriteString(line[:maxWidth] + "[...]")
		} else {
			res.WriteString(line)
		}
	}
	if cut {
		res.WriteString("\n[...]")
	}
	return res.String()
}

// TrimRecord returns a copy of rec whose outputs fit in a message.
func TrimRecord(rec *api.RunRecord, maxHeight int, maxWidth int) *api.RunRecord {
	if rec == nil {
		return nil
	}
	out := *rec
	out.Stdout = TrimStrToRect(rec.Stdout, maxHeight, maxWidth)
	out.Stderr = TrimStrToRect(rec.Stderr, maxHeight, maxWidth)
	out.Verdict.Diff = TrimStrToRect(rec.Verdict.Diff, maxHeight, maxWidth)
	out.Transcript = make([]api.Segment, len(rec.Transcript))
	for i, seg := range rec.Transcript {
		out.Transcript[i] = api.Segment{
			Stream: seg.Stream,
			Data:   TrimStrToRect(seg.Data, maxHeight, maxWidth),
		}
	}
	return &out
}
