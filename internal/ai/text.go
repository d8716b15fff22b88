package ai

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// plainText reduces HTML fragments and entities that search snippets and model
// output sometimes carry to collapsed plain text. Strings without markup are
// only whitespace-normalized.
func plainText(s string) string {
	if strings.ContainsAny(s, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// stripCodeFences removes a surrounding ``` or ```json fence from model
// output; text without fences is returned trimmed.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	_, after, ok := strings.Cut(s, "```")
	if !ok {
		return s
	}
	body, _, _ := strings.Cut(after, "```")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = body[4:]
	}
	return strings.TrimSpace(body)
}
