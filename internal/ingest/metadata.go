package ingest

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	yearRE      = regexp.MustCompile(`1[0-9]{3}|20[0-9]{2}`)
	digitsRE    = regexp.MustCompile(`[0-9]{4}`)
	separatorRE = regexp.MustCompile(`[_\-]+`)
	spacesRE    = regexp.MustCompile(`\s+`)
)

// GuessTitleYear derives a display title and a year from a filename.
// "Tratado_1492_Granada.pdf" yields ("Granada", 1492); with nothing
// after the year the pre-year portion is kept instead. A zero year means
// the filename carried no year signal.
func GuessTitleYear(filename string) (string, int) {
	name := filepath.Base(filename)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	year := 0
	title := name
	if loc := yearRE.FindStringIndex(name); loc != nil {
		year, _ = strconv.Atoi(name[loc[0]:loc[1]])
		if rest := strings.Trim(name[loc[1]:], " -_"); rest != "" {
			title = rest
		} else {
			title = strings.Trim(name[:loc[0]], " -_")
		}
	}

	title = separatorRE.ReplaceAllString(title, " ")
	title = strings.TrimSpace(spacesRE.ReplaceAllString(title, " "))
	return titleCase(title), year
}

// yearFromDate pulls the first 4-digit run out of an embedded date field
// such as a PDF CreationDate ("D:20031120...").
func yearFromDate(date string) int {
	m := digitsRE.FindString(date)
	if m == "" {
		return 0
	}
	year, _ := strconv.Atoi(m)
	return year
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		for j := 1; j < len(runes); j++ {
			runes[j] = unicode.ToLower(runes[j])
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
