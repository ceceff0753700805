package verifier

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const diffContext = 3

// unifiedDiff renders a line diff followed by the first differing byte,
// which catches differences a line diff hides (CR, missing final newline).
func unifiedDiff(fromName, toName string, want, got []byte) string {
	var b strings.Builder

	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(want)),
		B:        difflib.SplitLines(string(got)),
		FromFile: fromName,
		ToFile:   toName,
		Context:  diffContext,
	})
	if err == nil {
		b.WriteString(text)
		if text != "" && !strings.HasSuffix(text, "\n") {
			b.WriteByte('\n')
		}
	}

	i := firstDifference(want, got)
	fmt.Fprintf(&b, "%s vs %s: first difference at byte %d (expected %d bytes, got %d): expected %s, got %s\n",
		fromName, toName, i, len(want), len(got), byteAt(want, i), byteAt(got, i))
	return b.String()
}

func firstDifference(a, b []byte) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

func byteAt(b []byte, i int) string {
	if i >= len(b) {
		return "end of output"
	}
	return fmt.Sprintf("%q", b[i])
}
