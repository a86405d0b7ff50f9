// Package sanitize cleans free text received from external channels before it is stored.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
)

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

var entityReplacer = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&amp;", "&",
	"&quot;", "\"",
	"&#39;", "'",
	"&nbsp;", " ",
)

// StripHTML removes HTML tags, decoding common entities and stripping again
// so encoded tags do not survive.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = entityReplacer.Replace(result)
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Text strips HTML and control characters. Line breaks are kept so chat
// messages keep their shape; other whitespace runs collapse to one space.
func Text(s string) string {
	stripped := StripHTML(s)

	var b strings.Builder
	b.Grow(len(stripped))
	lastSpace := false
	for _, r := range stripped {
		switch {
		case r == '\n':
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune(' ')
			}
			lastSpace = true
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
			lastSpace = false
		}
	}
	return strings.TrimSpace(b.String())
}

// TextPtr is a helper for optional string pointers. Empty results become nil.
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	result := Text(*s)
	if result == "" {
		return nil
	}
	return &result
}

// Optional cleans s and returns nil when nothing is left.
func Optional(s string) *string {
	return TextPtr(&s)
}
