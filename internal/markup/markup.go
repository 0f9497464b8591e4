// Package markup turns the emphasis-marked plain text returned by the
// language model into render-ready segments.
package markup

import (
	"regexp"
	"strings"
)

// Delimiter opens and closes an emphasis run.
const Delimiter = "**"

// Kind tags a Segment.
type Kind string

const (
	Plain    Kind = "plain"
	Emphasis Kind = "emphasis"
)

// Segment is one contiguous run of text.
type Segment struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
}

// emphasisPattern is non-greedy and, like the model's own markdown flavour,
// does not let a run cross a line break.
var emphasisPattern = regexp.MustCompile(`\*\*(.*?)\*\*`)

// Parse scans text left to right for paired delimiters. The first closing
// pair ends a run; unmatched delimiters stay in the plain text. Nesting is
// not supported.
func Parse(text string) []Segment {
	var segments []Segment
	last := 0
	for _, m := range emphasisPattern.FindAllStringSubmatchIndex(text, -1) {
		if m[0] > last {
			segments = append(segments, Segment{Kind: Plain, Text: text[last:m[0]]})
		}
		segments = append(segments, Segment{Kind: Emphasis, Text: text[m[2]:m[3]]})
		last = m[1]
	}
	if last < len(text) {
		segments = append(segments, Segment{Kind: Plain, Text: text[last:]})
	}
	return segments
}

// Text concatenates the visible text of every segment, which is the input
// with its delimiter pairs removed.
func Text(segments []Segment) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Source rebuilds the exact text the segments were parsed from.
func Source(segments []Segment) string {
	var b strings.Builder
	for _, s := range segments {
		if s.Kind == Emphasis {
			b.WriteString(Delimiter)
			b.WriteString(s.Text)
			b.WriteString(Delimiter)
			continue
		}
		b.WriteString(s.Text)
	}
	return b.String()
}
