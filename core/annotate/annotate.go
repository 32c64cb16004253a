// Package annotate highlights the quotes of a verse's notes in its rendered
// HTML.
//
// Each note is tried in three tiers: the aligned original-language quote,
// then the note's gateway-language gloss, then no highlight at all. Every
// note that misses the first tier yields a Diagnostic for manual review.
package annotate

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/versemark/core/align"
	"github.com/FocuswithJustin/versemark/core/errors"
	"github.com/FocuswithJustin/versemark/core/highlight"
	"github.com/FocuswithJustin/versemark/internal/logging"
)

// QuotesToIgnore are note quotes that label a note rather than quote the
// verse. They are compared lower-cased.
var QuotesToIgnore = []string{"general information:", "connecting statement:"}

// footnotesMarker starts the footnote block appended to a rendered verse.
const footnotesMarker = `<div class="footnotes">`

// Note is a translation note attached to a verse.
type Note struct {
	ID         string      `json:"id" yaml:"id"`
	Quote      align.Quote `json:"quote" yaml:"quote"`
	Occurrence int         `json:"occurrence" yaml:"occurrence"`
	// GLQuote is the gateway-language gloss of the quote.
	GLQuote string `json:"gl_quote" yaml:"gl_quote"`
}

// Verse is one rendered verse together with its alignment.
type Verse struct {
	Book    string `json:"book"`
	Chapter int    `json:"chapter"`
	Verse   int    `json:"verse"`
	// HTML is the rendered verse, optionally followed by its footnote block.
	HTML string `json:"html"`
	// Alignment is the aligned translation; nil when the verse has none.
	Alignment *align.Tree `json:"alignment,omitempty"`
	// TargetText and SourceText are the raw translation and original-language
	// text, quoted in diagnostics.
	TargetText string `json:"target_text,omitempty"`
	SourceText string `json:"source_text,omitempty"`
}

// Ref returns the verse reference, e.g. "GEN 1:1".
func (v Verse) Ref() string {
	return fmt.Sprintf("%s %d:%d", strings.ToUpper(v.Book), v.Chapter, v.Verse)
}

// Tier records how a note was highlighted.
type Tier int

const (
	// TierAligned highlighted the aligned quote.
	TierAligned Tier = iota
	// TierGloss highlighted the gateway-language gloss.
	TierGloss
	// TierPlain left the verse unhighlighted.
	TierPlain
	// TierIgnored skipped a note whose quote is a label.
	TierIgnored
)

func (t Tier) String() string {
	switch t {
	case TierAligned:
		return "aligned"
	case TierGloss:
		return "gloss"
	case TierPlain:
		return "plain"
	case TierIgnored:
		return "ignored"
	}
	return fmt.Sprintf("Tier(%d)", int(t))
}

// Outcome is the result for one note.
type Outcome struct {
	NoteID string           `json:"note_id"`
	Phrase int              `json:"phrase"`
	Tier   Tier             `json:"tier"`
	Groups align.MatchGroups `json:"groups,omitempty"`
	// Text is the highlighted wording, groups joined with an ellipsis.
	Text string `json:"text,omitempty"`
}

// DiagnosticKind names the stage a note failed at.
type DiagnosticKind string

const (
	// AlignmentNotFound means the quote had no match in the alignment.
	AlignmentNotFound DiagnosticKind = "alignment_not_found"
	// HighlightNotFound means the aligned words could not be found in the HTML.
	HighlightNotFound DiagnosticKind = "highlight_not_found"
)

// Diagnostic is a record for manual review.
type Diagnostic struct {
	// ID is a stable key for deduplicating diagnostics across runs.
	ID     string         `json:"id"`
	Kind   DiagnosticKind `json:"kind"`
	Ref    string         `json:"ref"`
	NoteID string         `json:"note_id"`
	Quote  string         `json:"quote"`
	Title  string         `json:"title"`
	// Fix is the gloss that highlighted successfully, if any.
	Fix     string `json:"fix,omitempty"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Options configures Annotate.
type Options struct {
	// Bible names the aligned translation in diagnostics (e.g. "ult").
	Bible string
	// SourceBible names the original-language text (e.g. "ugnt").
	SourceBible string
	// Element is the highlight element name. Defaults to highlight.DefaultElement.
	Element string
	// Ignore overrides QuotesToIgnore.
	Ignore []string
	Logger *slog.Logger
}

// Result is the annotated verse.
type Result struct {
	HTML        string       `json:"html"`
	Outcomes    []Outcome    `json:"outcomes"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// Annotate highlights every note of v in order. Note i is numbered phrase
// i+1. The footnote block is never highlighted and is reattached unchanged.
func Annotate(v Verse, notes []Note, opts Options) *Result {
	log := logging.OrDefault(opts.Logger)
	ignore := opts.Ignore
	if ignore == nil {
		ignore = QuotesToIgnore
	}

	scripture, footnotes := v.HTML, ""
	if i := strings.Index(v.HTML, footnotesMarker); i >= 0 {
		scripture, footnotes = v.HTML[:i], v.HTML[i:]
	}

	res := &Result{}
	for i, note := range notes {
		phrase := i + 1
		out := Outcome{NoteID: note.ID, Phrase: phrase, Tier: TierPlain}
		if ignored(ignore, note.GLQuote) || ignored(ignore, note.Quote.String()) {
			out.Tier = TierIgnored
			res.Outcomes = append(res.Outcomes, out)
			continue
		}
		occurrence := max(note.Occurrence, 1)
		before := len(res.Diagnostics)

		groups := align.LocateContext(v.Alignment, align.ContextID{
			Chapter:    v.Chapter,
			Verse:      v.Verse,
			Quote:      note.Quote,
			Occurrence: occurrence,
		})
		switch {
		case groups == nil && len(note.Quote) > 0:
			res.Diagnostics = append(res.Diagnostics, alignmentDiagnostic(v, note, occurrence, opts))
		case groups != nil && ignored(ignore, align.FlattenGroups(groups)):
			out.Tier = TierIgnored
			res.Outcomes = append(res.Outcomes, out)
			continue
		}

		// Tier 1: the aligned quote.
		var alignedErr error
		if groups != nil {
			marked, err := highlight.HighlightPhrase(scripture, groups, opts.Element, phrase)
			if err == nil {
				scripture = marked
				out.Tier, out.Groups, out.Text = TierAligned, groups, align.FlattenGroups(groups)
				res.Outcomes = append(res.Outcomes, out)
				continue
			}
			alignedErr = err
		}

		// Tier 2: the gloss.
		glossErr := errors.Wrap(errors.ErrHighlightNotFound, "note has no gloss")
		if gloss := glossGroups(note.GLQuote, occurrence); gloss != nil {
			var marked string
			if marked, glossErr = highlight.HighlightPhrase(scripture, gloss, opts.Element, phrase); glossErr == nil {
				scripture = marked
				out.Tier, out.Groups, out.Text = TierGloss, gloss, note.GLQuote
			}
		}

		// Tier 3 leaves the verse as it is.
		fix := ""
		if out.Tier == TierGloss {
			fix = note.GLQuote
		}
		switch {
		case alignedErr != nil:
			res.Diagnostics = append(res.Diagnostics, highlightDiagnostic(v, note, align.FlattenGroups(groups), fix, alignedErr, opts))
		case out.Tier == TierPlain && len(res.Diagnostics) == before:
			res.Diagnostics = append(res.Diagnostics, highlightDiagnostic(v, note, note.GLQuote, "", glossErr, opts))
		}
		logging.HighlightMiss(log, v.Ref(), note.Quote.String(), out.Tier.String(), "note", note.ID)
		res.Outcomes = append(res.Outcomes, out)
	}

	res.HTML = scripture + footnotes
	return res
}

func glossGroups(quote string, occurrence int) align.MatchGroups {
	quote = strings.TrimSpace(quote)
	if quote == "" {
		return nil
	}
	return align.MatchGroups{{{Text: quote, Occurrence: occurrence}}}
}

func ignored(ignore []string, quote string) bool {
	q := strings.ToLower(strings.TrimSpace(quote))
	if q == "" {
		return false
	}
	for _, s := range ignore {
		if q == strings.ToLower(s) {
			return true
		}
	}
	return false
}

func alignmentDiagnostic(v Verse, note Note, occurrence int, opts Options) Diagnostic {
	err := &errors.AlignmentNotFoundError{
		Chapter:    v.Chapter,
		Verse:      v.Verse,
		Quote:      note.Quote.String(),
		Occurrence: occurrence,
		Bible:      opts.Bible,
	}
	d := Diagnostic{
		Kind:   AlignmentNotFound,
		Ref:    v.Ref(),
		NoteID: note.ID,
		Quote:  note.Quote.String(),
		Title:  fmt.Sprintf("OL quote not found in %s alignment", strings.TrimSpace(strings.ToUpper(opts.Bible)+" "+v.Ref())),
		Err:    err,
	}
	d.Message = message(v, d, opts)
	d.ID = diagnosticID(d)
	return d
}

func highlightDiagnostic(v Verse, note Note, text, fix string, err error, opts Options) Diagnostic {
	d := Diagnostic{
		Kind:   HighlightNotFound,
		Ref:    v.Ref(),
		NoteID: note.ID,
		Quote:  text,
		Title:  fmt.Sprintf("Unable to highlight %q in %s", text, v.Ref()),
		Fix:    fix,
		Err:    err,
	}
	d.Message = message(v, d, opts)
	d.ID = diagnosticID(d)
	return d
}

func message(v Verse, d Diagnostic, opts Options) string {
	bible, sourceBible := strings.ToUpper(opts.Bible), strings.ToUpper(opts.SourceBible)
	if bible == "" {
		bible = "TARGET"
	}
	if sourceBible == "" {
		sourceBible = "SOURCE"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "VERSE: %s\n", d.Ref)
	fmt.Fprintf(&b, "NOTE: %s\n", d.NoteID)
	fmt.Fprintf(&b, "QUOTE: %s\n", d.Quote)
	if d.Fix != "" {
		fmt.Fprintf(&b, "FIX: %s\n", d.Fix)
	}
	fmt.Fprintf(&b, "%s: %s\n", bible, v.TargetText)
	fmt.Fprintf(&b, "%s: %s\n", sourceBible, v.SourceText)
	return b.String()
}

// diagnosticID hashes the fields that identify a diagnostic.
func diagnosticID(d Diagnostic) string {
	sum := blake3.Sum256([]byte(strings.Join([]string{string(d.Kind), d.Ref, d.NoteID, d.Quote}, "\x00")))
	return hex.EncodeToString(sum[:8])
}
