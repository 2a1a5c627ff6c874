// Package readingtime estimates how long a markdown body takes to read.
package readingtime

import (
	"fmt"
	"math"
	"unicode"
)

// WordsPerMinute is the assumed reading speed.
const WordsPerMinute = 200

// Stats is a reading-time estimate.
type Stats struct {
	Words   int
	Minutes float64
	// Text is the human-readable form, e.g. "3 min read".
	Text string
}

// WholeMinutes rounds the estimate up to whole minutes.
func (s Stats) WholeMinutes() int {
	return int(math.Ceil(s.Minutes))
}

// Label is the short form stored in post metadata, e.g. "3분".
func (s Stats) Label() string {
	return fmt.Sprintf("%d분", s.WholeMinutes())
}

// Estimate counts words in text. Runs of letters and digits count as one
// word; every CJK character counts as a word of its own.
func Estimate(text string) Stats {
	words := 0
	inWord := false
	for _, r := range text {
		switch {
		case isCJK(r):
			words++
			inWord = false
		case unicode.IsSpace(r):
			inWord = false
		default:
			if !inWord {
				words++
				inWord = true
			}
		}
	}

	minutes := float64(words) / WordsPerMinute
	// Round to two decimals first so 1.0000001 does not become 2.
	display := int(math.Ceil(math.Round(minutes*100) / 100))
	return Stats{
		Words:   words,
		Minutes: minutes,
		Text:    fmt.Sprintf("%d min read", display),
	}
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hangul, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r)
}
