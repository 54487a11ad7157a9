// Package htmltext pulls the visible text out of HTML markup.
package htmltext

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// invisible lists elements whose content never renders as text.
const invisible = "script, style, noscript, template, head > meta, head > link, svg"

// Extract returns the document title and its visible text with blank lines
// collapsed and surrounding whitespace trimmed from every line.
func Extract(r io.Reader) (title string, text string, err error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", "", err
	}
	title = strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find(invisible).Remove()
	doc.Find("title").Remove()
	return title, Collapse(doc.Text()), nil
}

// Collapse trims each line and drops empty ones.
func Collapse(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
