package resolver

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var sourceCitation = regexp.MustCompile(`\(Source:[^)]*\)`)

var lineBreakTags = strings.NewReplacer(
	"<br>", "\n",
	"<br/>", "\n",
	"<br />", "\n",
)

// CleanSynopsis strips the trailing "(Source: ...)" citation fragment
// and any HTML markup from a synopsis. Escaping for the caption's
// markup dialect happens at render time, not here.
func CleanSynopsis(s string) string {
	s = sourceCitation.ReplaceAllString(s, "")
	s = stripHTML(s)
	return strings.TrimSpace(s)
}

func stripHTML(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	s = lineBreakTags.Replace(s)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return doc.Text()
}
