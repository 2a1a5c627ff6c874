// Package document composes and parses post documents: a positional header
// block between --- delimiters followed by the raw markdown body.
package document

import (
	"strings"

	"github.com/starford/inkwell/internal/models"
)

// Header is the metadata written into a document's header block.
type Header struct {
	Title       string
	Date        string
	Category    string
	Tags        []string
	Thumbnail   string
	ReadingTime string
}

// Compose renders the header block and body as one document. Values are
// embedded verbatim; a double quote inside the title or category is not
// escaped.
func Compose(h Header, body string) string {
	category := h.Category
	if category == "" {
		category = models.DefaultCategory
	}

	quoted := make([]string, len(h.Tags))
	for i, t := range h.Tags {
		quoted[i] = `"` + t + `"`
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString(`title: "` + h.Title + "\"\n")
	b.WriteString("date: " + h.Date + "\n")
	b.WriteString(`category: "` + category + "\"\n")
	b.WriteString("tags: [" + strings.Join(quoted, ", ") + "]\n")
	b.WriteString(`thumbnail: "` + h.Thumbnail + "\"\n")
	b.WriteString(`readingTime: "` + h.ReadingTime + "\"\n")
	b.WriteString("---\n\n")
	b.WriteString(body)
	b.WriteString("\n")
	return b.String()
}
