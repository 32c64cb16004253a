// Package encoding provides shared text escaping utilities for rendered HTML.
package encoding

import (
	"strings"
)

// Placeholder is the reserved character USFM uses for a non-breaking space.
const Placeholder = "~"

// NBSP is the entity written in place of Placeholder.
const NBSP = "&nbsp;"

var htmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\"", "&quot;",
)

// EscapeHTML escapes special characters for HTML content.
// Escapes: & < > "
func EscapeHTML(s string) string {
	return htmlReplacer.Replace(s)
}

// EscapeText escapes text for HTML output and turns the USFM placeholder
// into a non-breaking space.
func EscapeText(s string) string {
	return strings.ReplaceAll(EscapeHTML(s), Placeholder, NBSP)
}

// EscapeXMLAttr escapes text for use in attribute values.
func EscapeXMLAttr(s string) string {
	s = EscapeHTML(s)
	s = strings.ReplaceAll(s, "'", "&apos;")
	return s
}

// Spaces returns n non-breaking space entities.
func Spaces(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(NBSP, n)
}

// ZeroPad left-pads s with zeros to width characters. Longer strings are returned unchanged.
// A leading sign is kept in front of the padding.
func ZeroPad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	sign := ""
	if s != "" && (s[0] == '-' || s[0] == '+') {
		sign, s = s[:1], s[1:]
	}
	return sign + strings.Repeat("0", width-len(s)-len(sign)) + s
}
