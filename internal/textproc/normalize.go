package textproc

import (
	"regexp"
	"strings"
)

var (
	crlfRE        = regexp.MustCompile(`\r\n?`)
	hyphenBreakRE = regexp.MustCompile(`([\p{L}\p{N}_])-\n([\p{L}\p{N}_])`)
	multiSpaceRE  = regexp.MustCompile(`[ \t]{2,}`)
	multiNlRE     = regexp.MustCompile(`\n{3,}`)

	spaceVariants = strings.NewReplacer(
		" ", " ", // no-break space
		" ", " ", // thin space
		" ", " ", // en space
		" ", " ", // em space
	)
)

// Normalize canonicalizes raw extracted text: line endings become "\n",
// words hyphen-broken across a line break are rejoined, space variants
// become plain spaces, horizontal whitespace runs collapse to one space
// and three or more newlines collapse to a paragraph break. Pure and
// idempotent; empty input yields "".
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = crlfRE.ReplaceAllString(s, "\n")
	s = hyphenBreakRE.ReplaceAllString(s, "${1}${2}")
	s = spaceVariants.Replace(s)
	s = multiSpaceRE.ReplaceAllString(s, " ")
	s = multiNlRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
