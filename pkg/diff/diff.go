// Package diff renders human-readable value differences for drift reports.
package diff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	maxDiffLines    = 10000
	truncateMessage = "... (diff truncated, exceeds 10,000 lines) ..."
)

// Render formats the difference between a desired and an observed property
// value. Multi-line strings render as a unified diff; everything else renders
// as a one-line expected/actual pair.
func Render(property string, expected, actual any) string {
	expectedStr, expectedOK := expected.(string)
	actualStr, actualOK := actual.(string)

	if expectedOK && actualOK && (strings.Contains(expectedStr, "\n") || strings.Contains(actualStr, "\n")) {
		return Unified(expectedStr, actualStr, property+" (desired)", property+" (actual)")
	}

	return fmt.Sprintf("%s: expected %q, got %q", property, format(expected), format(actual))
}

func format(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", v)
}

// Unified generates a unified-diff rendering of two texts. It returns the
// empty string when the texts are identical and truncates output beyond
// 10,000 lines.
func Unified(expected, actual, expectedLabel, actualLabel string) string {
	if expected == actual {
		return ""
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(expected, actual, false))

	var buf strings.Builder
	fmt.Fprintf(&buf, "--- %s\n", expectedLabel)
	fmt.Fprintf(&buf, "+++ %s\n", actualLabel)
	fmt.Fprintf(&buf, "@@ -1,%d +1,%d @@\n", len(strings.Split(expected, "\n")), len(strings.Split(actual, "\n")))

	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		for _, line := range splitLines(d.Text) {
			buf.WriteString(prefix)
			buf.WriteString(line)
			buf.WriteString("\n")
		}
	}

	return truncate(buf.String())
}

func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" && strings.HasSuffix(text, "\n") {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func truncate(result string) string {
	lines := strings.Split(result, "\n")
	if len(lines) <= maxDiffLines {
		return result
	}
	return strings.Join(lines[:maxDiffLines], "\n") + "\n" + truncateMessage + "\n"
}
