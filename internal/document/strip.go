package document

import (
	"regexp"
	"strings"
)

// ExcerptRunes is the length of a post excerpt before the ellipsis.
const ExcerptRunes = 150

var stripRules = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile("```[\\s\\S]*?```"), ""}, // fenced code blocks
	{regexp.MustCompile(`!\[.*?\]\(.*?\)`), ""},  // images
	{regexp.MustCompile(`#{1,6}\s`), ""},         // heading markers
	{regexp.MustCompile(`\*\*(.*?)\*\*`), "$1"},  // bold
	{regexp.MustCompile(`\*(.*?)\*`), "$1"},      // italic
	{regexp.MustCompile("`(.*?)`"), "$1"},        // inline code
}

// StripMarkdown removes images, heading markers, emphasis, inline code and
// fenced code blocks. Removing one construct can expose another (e.g.
// "!![a](b)[c](d)"), so the rules are reapplied until the text stops
// changing. Every rule only removes text, so the loop terminates.
func StripMarkdown(md string) string {
	out := md
	for {
		next := out
		for _, r := range stripRules {
			next = r.re.ReplaceAllString(next, r.repl)
		}
		next = strings.TrimSpace(next)
		if next == out {
			break
		}
		out = next
	}
	return out
}

// Excerpt returns the first 150 characters of the stripped body followed by
// a literal "...".
func Excerpt(body string) string {
	r := []rune(StripMarkdown(body))
	if len(r) > ExcerptRunes {
		r = r[:ExcerptRunes]
	}
	return string(r) + "..."
}
