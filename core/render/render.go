// Package render turns a USFM token stream into HTML.
//
// Rendering is a left fold over the tokens: an explicit State is threaded
// through Step, which looks the token's marker up in a dispatch table and
// applies the matching transition. Structural defects are reported per token
// and never stop the render; Finish closes whatever is still open, so the
// output is always balanced.
package render

import (
	"log/slog"
	"strings"

	"github.com/FocuswithJustin/versemark/core/errors"
	"github.com/FocuswithJustin/versemark/core/usfm"
	"github.com/FocuswithJustin/versemark/internal/logging"
)

// DefaultChapterLabel is used in chapter headings until a \cl marker changes it.
const DefaultChapterLabel = "Chapter"

// Options configures a render.
type Options struct {
	// Book is the book key to use before any \id marker (e.g. "gen").
	Book string
	// ChapterLabel overrides DefaultChapterLabel.
	ChapterLabel string
	// Logger receives defect and fallback records. Defaults to the global logger.
	Logger *slog.Logger
}

// Output collects rendered markup and the footnotes written so far.
type Output struct {
	buf       strings.Builder
	footnotes []Footnote
	bookName  string
}

// Write implements io.Writer.
func (o *Output) Write(p []byte) (int, error) {
	return o.buf.Write(p)
}

// WriteString appends markup.
func (o *Output) WriteString(s string) (int, error) {
	return o.buf.WriteString(s)
}

// String returns the markup written so far.
func (o *Output) String() string {
	return o.buf.String()
}

// Result is the outcome of rendering one token stream.
type Result struct {
	HTML     string
	Book     string
	BookName string
	// Footnotes lists every footnote in document order.
	Footnotes []Footnote
	// Defects lists the structural defects that were logged and skipped.
	Defects []error
}

// Step applies a single token. Tokens whose value breaks the marker's value
// rule are reported as *errors.StructuralDefect: a stray value on a
// valueless marker is dropped and the marker still applies, while a missing
// required value or an unknown marker skips the token.
func Step(st *State, tok usfm.Token, out *Output) error {
	var defect *errors.StructuralDefect
	if d := tok.Check(); d != nil {
		defect = d
		if !tok.Kind.Known() || tok.Kind.ValueRule() == usfm.ValueRequired {
			return locate(st, defect)
		}
		tok.Value = ""
	}

	fn, ok := dispatch[tok.Kind]
	if !ok {
		return locate(st, errors.NewStructuralDefect(string(tok.Kind), tok.Value, "has no transition"))
	}
	if err := fn(st, tok, out); err != nil {
		var d *errors.StructuralDefect
		if errors.As(err, &d) {
			return locate(st, d)
		}
		return err
	}
	if defect != nil {
		return locate(st, defect)
	}
	return nil
}

func locate(st *State, d *errors.StructuralDefect) error {
	d.Chapter = st.Chapter
	d.Verse = st.Verse
	return d
}

// Finish closes everything still open at the end of the stream and flushes
// the remaining footnotes.
func Finish(st *State, out *Output) {
	closeFootnote(st)
	closeLists(st, out)
	closeBlock(st, out)
	flushFootnotes(st, out)
}

// Render renders a complete token stream.
func Render(tokens []usfm.Token, opts Options) *Result {
	log := logging.OrDefault(opts.Logger)
	opts.Logger = log

	st := NewState(opts)
	st.Book = opts.Book
	out := &Output{}
	res := &Result{}

	for _, tok := range tokens {
		if err := Step(st, tok, out); err != nil {
			res.Defects = append(res.Defects, err)
			logging.StructuralDefect(log, st.Book, string(tok.Kind), err, "chapter", st.Chapter, "verse", st.Verse)
		}
	}
	Finish(st, out)

	res.HTML = out.String()
	res.Book = st.Book
	res.BookName = out.bookName
	res.Footnotes = out.footnotes
	return res
}
