// Package slug derives URL-safe post identifiers from titles.
package slug

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const maxBaseRunes = 50

var (
	whitespaceRe = regexp.MustCompile(`[\s\p{Zs}]+`)
	// Hangul syllables are kept so Korean titles stay readable in URLs.
	disallowedRe = regexp.MustCompile(`[^a-z0-9\-가-힣]`)
)

// Base normalises a title: lower-case, whitespace runs become a single
// hyphen, anything outside [a-z0-9-] and Hangul syllables is dropped, and
// the result is truncated to 50 runes.
func Base(title string) string {
	s := strings.ToLower(title)
	s = whitespaceRe.ReplaceAllString(s, "-")
	s = disallowedRe.ReplaceAllString(s, "")
	if r := []rune(s); len(r) > maxBaseRunes {
		s = string(r[:maxBaseRunes])
	}
	return s
}

// Generate returns the normalised title followed by -<tsMillis>. The
// millisecond timestamp is what makes two submissions never collide.
func Generate(title string, tsMillis int64) string {
	return Base(title) + "-" + strconv.FormatInt(tsMillis, 10)
}

// FileStem prefixes a generated slug with the submission date. The result is
// both the stored slug and the document file name without extension.
func FileStem(at time.Time, generated string) string {
	return at.Format("2006-01-02") + "-" + generated
}
