package render

import (
	"regexp"
	"strings"

	"github.com/FocuswithJustin/versemark/core/encoding"
)

const documentHead = `<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html lang="en" xmlns="http://www.w3.org/1999/xhtml">
<head>
    <meta http-equiv="content-type" content="text/html; charset=utf-8"></meta>
    <title>{{title}}</title>
    <style media="all" type="text/css">
    .indent-0 { margin-left:0em; margin-bottom:0em; margin-top:0em; }
    .indent-1 { margin-left:0em; margin-bottom:0em; margin-top:0em; }
    .indent-2 { margin-left:1em; margin-bottom:0em; margin-top:0em; }
    .indent-3 { margin-left:2em; margin-bottom:0em; margin-top:0em; }
    .c-num { color:gray; }
    .v-num { color:gray; }
    .tetragrammaton { font-variant: small-caps; }
    .d { font-style: italic; }
    .footnotes { font-size: 0.8em; }
    .footnotes-hr { width: 90%; }
    </style>
</head>
<body>
`

const documentTail = "\n    </body>\n</html>\n"

// Document wraps a rendered fragment in a standalone XHTML page.
func Document(res *Result) string {
	title := res.BookName
	if title == "" {
		title = strings.ToUpper(res.Book)
	}
	var b strings.Builder
	b.WriteString(strings.Replace(documentHead, "{{title}}", encoding.EscapeText(title), 1))
	b.WriteString(res.HTML)
	b.WriteString(documentTail)
	return b.String()
}

var (
	spaceBeforeFootnoteRef = regexp.MustCompile(` +(<span id="ref-fn-)`)
	spaceAfterVerseNumber  = regexp.MustCompile(`(</b></sup></span>) +`)
	spaceBeforeItalicEnd   = regexp.MustCompile(` +(</i>)`)
)

// FixLinks removes the padding spaces the renderer leaves around footnote
// references, verse numbers and closing italics.
func FixLinks(html string) string {
	html = spaceBeforeFootnoteRef.ReplaceAllString(html, "$1")
	html = spaceAfterVerseNumber.ReplaceAllString(html, "$1")
	html = spaceBeforeItalicEnd.ReplaceAllString(html, "$1")
	return html
}
