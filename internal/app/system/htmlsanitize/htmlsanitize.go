// internal/app/system/htmlsanitize/htmlsanitize.go
//
// Package htmlsanitize cleans user-generated text before it is stored.
// Titles, descriptions and invite messages are reduced to plain text; comment
// bodies keep a small set of inline formatting tags.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strict  = bluemonday.StrictPolicy()
	comment = commentPolicy()
)

func commentPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("b", "strong", "i", "em", "u", "s", "code", "br", "p", "blockquote")
	p.AllowStandardURLs()
	p.AllowAttrs("href").OnElements("a")
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// PlainText strips all markup and returns trimmed text with entities decoded,
// so "Tom &amp; Jerry" is stored as "Tom & Jerry".
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// Comment keeps safe inline formatting and links, dropping scripts, event
// handlers and everything else.
func Comment(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(comment.Sanitize(s))
}
