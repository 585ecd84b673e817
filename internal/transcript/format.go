package transcript

import (
	"fmt"
	"strings"
)

// Format renders segments as one "[timestamp] text" line each, joined by
// newlines. Segment order is preserved.
func Format(segments []Segment) string {
	lines := make([]string, 0, len(segments))
	for _, seg := range segments {
		lines = append(lines, fmt.Sprintf("[%s] %s", FormatTimestamp(seg.Start), seg.Text))
	}
	return strings.Join(lines, "\n")
}

// FormatPlain joins segment texts with spaces, without timestamps.
func FormatPlain(segments []Segment) string {
	texts := make([]string, 0, len(segments))
	for _, seg := range segments {
		texts = append(texts, seg.Text)
	}
	return strings.Join(texts, " ")
}

// FormatTimestamp renders a start offset as MM:SS, or HH:MM:SS once the
// offset reaches one hour. The fractional part is discarded for display.
func FormatTimestamp(seconds float64) string {
	total := int(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}
