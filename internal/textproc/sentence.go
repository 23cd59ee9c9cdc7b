package textproc

import (
	"regexp"
	"strings"
)

// Segmenter splits normalized text into sentence-like units. It is a
// replaceable strategy so a locale-specific or statistical splitter can
// be swapped in without touching the chunk packing logic.
type Segmenter interface {
	Split(text string) []string
}

// A boundary exists after '.', '?', '!' or an ellipsis, followed by
// whitespace, followed by an uppercase letter or a digit. Go's RE2 has no
// lookarounds, so the boundary is located by submatch indices instead:
// group 1 ends the sentence, group 2 is the consumed whitespace.
var sentenceBoundaryRE = regexp.MustCompile(`([.!?…])(\s+)[\p{Lu}0-9]`)

// RegexSegmenter is the default heuristic splitter. It intentionally errs
// toward under-splitting: an abbreviation followed by a lowercase word
// never opens a new sentence.
type RegexSegmenter struct{}

func (RegexSegmenter) Split(text string) []string {
	var parts []string
	start := 0
	for _, loc := range sentenceBoundaryRE.FindAllStringSubmatchIndex(text, -1) {
		end := loc[3]       // end of the closing punctuation
		nextStart := loc[5] // end of the whitespace run
		if end <= start {
			continue
		}
		parts = append(parts, text[start:end])
		start = nextStart
	}
	if start < len(text) {
		parts = append(parts, text[start:])
	}

	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}
