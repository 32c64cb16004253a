package render

import (
	"log/slog"
	"strings"

	"github.com/FocuswithJustin/versemark/core/usfm"
)

// BlockKind identifies the paragraph-level block that is currently open.
type BlockKind int

const (
	// BlockClosed means no paragraph or indent block is open.
	BlockClosed BlockKind = iota
	// BlockParagraph is a plain <p> block.
	BlockParagraph
	// BlockIndent is a <p class="indent-N"> block; Level holds N.
	BlockIndent
)

// Block is the open paragraph-level block. Only one can be open at a time.
type Block struct {
	Kind  BlockKind
	Level int
}

// MaxListDepth is the deepest list nesting the renderer opens.
const MaxListDepth = 3

// Footnote is a closed footnote waiting to be written, or already written.
// Key is the anchor id (fn-gen-001-002-001); because chapter, verse and
// sequence are zero-padded, keys sort in document order. Text is HTML.
type Footnote struct {
	Key      string `json:"key"`
	Book     string `json:"book"`
	Chapter  string `json:"chapter"`
	Verse    string `json:"verse"`
	Sequence int    `json:"sequence"`
	Text     string `json:"text"`
}

// pendingFootnote is the footnote whose text is still being collected.
type pendingFootnote struct {
	key       string
	sequence  int
	text      strings.Builder
	quoteOpen bool
}

// State is the per-document render state. It is owned by a single render and
// mutated by every token. Book is the lower-case key from \id; Chapter and
// Verse are zero-padded to three digits; Inline holds the open character
// styles, innermost last.
type State struct {
	Book          string
	BookName      string
	HeaderWritten bool
	ChapterLabel  string
	Chapter       string
	Verse         string
	Block         Block
	ListDepth     int
	Inline        []usfm.MarkerKind

	// Footnotes closed since the last flush, in encounter order.
	Footnotes    []Footnote
	NextFootnote int

	footnote     *pendingFootnote
	defaultLabel string
	log          *slog.Logger
}

// NewState returns the initial state for one document.
func NewState(opts Options) *State {
	label := opts.ChapterLabel
	if label == "" {
		label = DefaultChapterLabel
	}
	return &State{
		ChapterLabel: label,
		Chapter:      frontMatter,
		Verse:        frontMatter,
		NextFootnote: 1,
		defaultLabel: label,
		log:          opts.Logger,
	}
}

// frontMatter is the chapter/verse used before the first \c or \v.
const frontMatter = "000"

// FootnoteOpen reports whether a footnote is collecting text.
func (st *State) FootnoteOpen() bool {
	return st.footnote != nil
}

// FootnoteQuoteOpen reports whether a footnote quote emphasis is open.
func (st *State) FootnoteQuoteOpen() bool {
	return st.footnote != nil && st.footnote.quoteOpen
}
