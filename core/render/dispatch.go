package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/versemark/core/encoding"
	"github.com/FocuswithJustin/versemark/core/errors"
	"github.com/FocuswithJustin/versemark/core/usfm"
	"github.com/FocuswithJustin/versemark/internal/logging"
)

// transition applies one token to the state, writing markup to out.
// A non-nil error is a structural defect local to the token.
type transition func(st *State, tok usfm.Token, out *Output) error

// dispatch maps every marker kind in the vocabulary to its transition.
var dispatch map[usfm.MarkerKind]transition

func init() {
	dispatch = map[usfm.MarkerKind]transition{
		usfm.KindID:     renderID,
		usfm.KindHeader: renderHeader,
		usfm.KindTOC2:   renderTOC2,

		usfm.KindTitle1:        noop,
		usfm.KindTitle2:        heading("h2", false),
		usfm.KindTitle3:        heading("h2", false),
		usfm.KindMajorSection1: heading("h3", false),
		usfm.KindMajorSection2: heading("h4", false),
		usfm.KindIntroTitle1:   heading("h2", false),
		usfm.KindIntroTitle2:   heading("h3", false),
		usfm.KindIntroTitle3:   heading("h4", false),
		usfm.KindSection1:      heading(`h4 style="text-align:center"`, true),
		usfm.KindSection2:      heading(`h5 style="text-align:center"`, true),
		usfm.KindSection3:      heading("h5", true),
		usfm.KindChunkBreak:    raw("\n<span class=\"chunk-break\"></span>\n"),
		usfm.KindChapterLabel:  renderChapterLabel,

		usfm.KindParagraph:       paragraph(""),
		usfm.KindMargin:          paragraph("margin"),
		usfm.KindParagraphIndent: indent(2),
		usfm.KindNoBreak:         renderNoBreak,
		usfm.KindBlankLine:       renderBlankLine,
		usfm.KindPoetry:          indent(1),
		usfm.KindPoetry1:         indent(1),
		usfm.KindPoetry2:         indent(2),
		usfm.KindPoetry3:         indent(3),
		usfm.KindListItem:        listItem(1),
		usfm.KindListItem1:       listItem(1),
		usfm.KindListItem2:       listItem(2),
		usfm.KindListItem3:       listItem(3),

		usfm.KindChapter: renderChapter,
		usfm.KindVerse:   renderVerse,

		usfm.KindFootnoteStart:      renderFootnoteStart,
		usfm.KindFootnoteText:       renderFootnoteText,
		usfm.KindFootnoteQuoteStart: renderFootnoteQuoteStart,
		usfm.KindFootnoteQuoteEnd:   renderFootnoteQuoteEnd,
		usfm.KindFootnoteParagraph:  renderFootnoteParagraph,
		usfm.KindFootnoteEnd:        renderFootnoteEnd,

		usfm.KindWordsOfJesusStart: openInline,
		usfm.KindWordsOfJesusEnd:   closeInlineKind(usfm.KindWordsOfJesusStart),
		usfm.KindItalicStart:       openInline,
		usfm.KindItalicEnd:         closeInlineKind(usfm.KindItalicStart),
		usfm.KindNameOfDeityStart:  openInline,
		usfm.KindNameOfDeityEnd:    closeInlineKind(usfm.KindNameOfDeityStart),
		usfm.KindSmallCapsStart:    openInline,
		usfm.KindSmallCapsEnd:      closeInlineKind(usfm.KindSmallCapsStart),
		usfm.KindEmphasisStart:     openInline,
		usfm.KindEmphasisEnd:       closeInlineKind(usfm.KindEmphasisStart),
		usfm.KindSelahStart:        openInline,
		usfm.KindSelahEnd:          closeInlineKind(usfm.KindSelahStart),
		usfm.KindAcrosticCharStart: openInline,
		usfm.KindAcrosticCharEnd:   closeInlineKind(usfm.KindAcrosticCharStart),
		usfm.KindLineBreak:         raw("<br />"),
		usfm.KindPageBreak:         noop,
		usfm.KindPeripheral:        noop,
		usfm.KindDescriptiveTitle:  wrapValue(`<span class="d">`, "</span>"),
		usfm.KindRightAligned:      wrapValue(`<i class="quote right" style="display:block;float:right;">`, "</i>"),
		usfm.KindAcrosticHeading:   renderAcrosticHeading,

		usfm.KindText: renderText,
	}
}

// inlineTags holds the opening and closing markup of character styles.
var inlineTags = map[usfm.MarkerKind][2]string{
	usfm.KindWordsOfJesusStart: {`<span class="woc">`, "</span>"},
	usfm.KindItalicStart:       {"<i>", "</i>"},
	usfm.KindNameOfDeityStart:  {`<span class="tetragrammaton">`, "</span>"},
	usfm.KindSmallCapsStart:    {"<b>", "</b>"},
	usfm.KindEmphasisStart:     {`<i class="emphasis">`, "</i>"},
	usfm.KindSelahStart:        {`<i class="quote selah" style="float:right;">`, "</i>"},
	usfm.KindAcrosticCharStart: {`<i class="quote acrostic character">`, "</i>"},
}

func noop(*State, usfm.Token, *Output) error { return nil }

func raw(markup string) transition {
	return func(_ *State, _ usfm.Token, out *Output) error {
		out.WriteString(markup)
		return nil
	}
}

func wrapValue(openTag, closeTag string) transition {
	return func(_ *State, tok usfm.Token, out *Output) error {
		out.WriteString(openTag + encoding.EscapeText(tok.Value) + closeTag)
		return nil
	}
}

// heading writes a heading element. Sections also end any open list.
func heading(tag string, section bool) transition {
	name, _, _ := strings.Cut(tag, " ")
	return func(st *State, tok usfm.Token, out *Output) error {
		if section {
			closeLists(st, out)
		}
		closeBlock(st, out)
		out.WriteString("\n\n<" + tag + ">" + encoding.EscapeText(tok.Value) + "</" + name + ">")
		return nil
	}
}

func renderID(st *State, tok usfm.Token, out *Output) error {
	closeFootnote(st)
	closeLists(st, out)
	closeBlock(st, out)
	flushFootnotes(st, out)
	st.Book = usfm.BookKey(tok.Value)
	st.BookName = ""
	st.HeaderWritten = false
	st.ChapterLabel = st.defaultLabel
	st.Chapter = frontMatter
	st.Verse = frontMatter
	st.NextFootnote = 1
	return nil
}

func renderHeader(st *State, tok usfm.Token, out *Output) error {
	if st.HeaderWritten {
		return nil
	}
	st.BookName = strings.TrimSpace(tok.Value)
	writeHeader(st, out)
	return nil
}

// renderTOC2 supplies the book name when no \h marker did.
func renderTOC2(st *State, tok usfm.Token, out *Output) error {
	if st.HeaderWritten || st.BookName != "" {
		return nil
	}
	st.BookName = strings.TrimSpace(tok.Value)
	writeHeader(st, out)
	return nil
}

func writeHeader(st *State, out *Output) {
	closeLists(st, out)
	closeBlock(st, out)
	out.WriteString("\n<h1>" + encoding.EscapeText(st.BookName) + "</h1>\n")
	st.HeaderWritten = true
	out.bookName = st.BookName
}

// ensureHeader derives the book name from the canonical table when the
// document reached its first chapter without \h or \toc2.
func ensureHeader(st *State, out *Output) {
	if st.HeaderWritten {
		return
	}
	if st.BookName == "" {
		if name, ok := usfm.BookName(st.Book); ok {
			st.BookName = name
		} else {
			st.BookName = strings.ToUpper(st.Book)
		}
		logging.BookNameFallback(st.log, st.Book, st.BookName, "book_number", usfm.BookNumber(st.Book))
	}
	writeHeader(st, out)
}

func renderChapterLabel(st *State, tok usfm.Token, _ *Output) error {
	st.ChapterLabel = strings.TrimSpace(tok.Value)
	return nil
}

func paragraph(class string) transition {
	open := "\n\n<p>"
	if class != "" {
		open = "\n\n<p class=\"" + class + "\">"
	}
	return func(st *State, _ usfm.Token, out *Output) error {
		closeLists(st, out)
		closeBlock(st, out)
		out.WriteString(open)
		st.Block = Block{Kind: BlockParagraph}
		return nil
	}
}

// IndentSpaces is the number of non-breaking spaces written per indent level.
// The downstream PDF renderer ignores margins, so indentation is spelled out.
const IndentSpaces = 4

func indent(level int) transition {
	return func(st *State, _ usfm.Token, out *Output) error {
		closeLists(st, out)
		closeBlock(st, out)
		out.WriteString("\n<p class=\"indent-" + strconv.Itoa(level) + "\">\n")
		out.WriteString(encoding.Spaces(level * IndentSpaces))
		st.Block = Block{Kind: BlockIndent, Level: level}
		return nil
	}
}

func renderNoBreak(st *State, _ usfm.Token, out *Output) error {
	closeBlock(st, out)
	return nil
}

func renderBlankLine(st *State, _ usfm.Token, out *Output) error {
	closeLists(st, out)
	closeBlock(st, out)
	out.WriteString("\n\n<p class=\"indent-0\">" + encoding.NBSP + "</p>")
	return nil
}

// listItem opens <ul> nesting down to depth. A request at or above the current
// depth closes every open list first.
func listItem(depth int) transition {
	return func(st *State, _ usfm.Token, out *Output) error {
		if depth <= st.ListDepth {
			closeLists(st, out)
		}
		closeBlock(st, out)
		for st.ListDepth < depth && st.ListDepth < MaxListDepth {
			out.WriteString("<ul>")
			st.ListDepth++
		}
		return nil
	}
}

func renderChapter(st *State, tok usfm.Token, out *Output) error {
	closeFootnote(st)
	ensureHeader(st, out)
	closeLists(st, out)
	closeBlock(st, out)
	flushFootnotes(st, out)
	st.NextFootnote = 1
	number := strings.TrimSpace(tok.Value)
	st.Chapter = encoding.ZeroPad(number, 3)
	st.Verse = frontMatter
	fmt.Fprintf(out, "\n\n<h2 id=\"%s\" class=\"c-num\">%s %s</h2>",
		encoding.EscapeXMLAttr(st.Book+"-ch-"+st.Chapter), encoding.EscapeText(st.ChapterLabel), encoding.EscapeText(number))
	return nil
}

func renderVerse(st *State, tok usfm.Token, out *Output) error {
	closeLists(st, out)
	closeFootnote(st)
	number := strings.TrimSpace(tok.Value)
	st.Verse = encoding.ZeroPad(number, 3)
	fmt.Fprintf(out, " <span id=\"%s\" class=\"v-num\"><sup><b>%s</b></sup></span>",
		encoding.EscapeXMLAttr(st.Book+"-ch-"+st.Chapter+"-v-"+st.Verse), encoding.EscapeText(number))
	return nil
}

// FootnoteKey builds the anchor id of a footnote.
func FootnoteKey(book, chapter, verse string, sequence int) string {
	return fmt.Sprintf("fn-%s-%s-%s-%s", book, chapter, verse, encoding.ZeroPad(strconv.Itoa(sequence), 3))
}

func renderFootnoteStart(st *State, tok usfm.Token, out *Output) error {
	closeFootnote(st)
	seq := st.NextFootnote
	key := FootnoteKey(st.Book, st.Chapter, st.Verse, seq)
	attr := encoding.EscapeXMLAttr(key)
	fmt.Fprintf(out, "<span id=\"ref-%s\"><sup><i>[<a href=\"#%s\">%d</a>]</i></sup></span>", attr, attr, seq)

	text := strings.TrimLeft(tok.Value, " ")
	if strings.HasPrefix(text, "+ ") {
		text = text[2:]
	} else if strings.HasPrefix(text, "+") {
		text = text[1:]
	}
	st.footnote = &pendingFootnote{key: key, sequence: seq}
	st.footnote.text.WriteString(encoding.EscapeText(text))
	return nil
}

func renderFootnoteText(st *State, tok usfm.Token, _ *Output) error {
	if st.footnote == nil {
		return errors.NewStructuralDefect(string(tok.Kind), tok.Value, "outside a footnote")
	}
	st.footnote.text.WriteString(encoding.EscapeText(tok.Value))
	return nil
}

func renderFootnoteQuoteStart(st *State, tok usfm.Token, _ *Output) error {
	if st.footnote == nil {
		return errors.NewStructuralDefect(string(tok.Kind), tok.Value, "outside a footnote")
	}
	if st.footnote.quoteOpen {
		st.footnote.text.WriteString("</i>")
	}
	st.footnote.text.WriteString("<i>" + encoding.EscapeText(tok.Value))
	st.footnote.quoteOpen = true
	return nil
}

func renderFootnoteQuoteEnd(st *State, tok usfm.Token, _ *Output) error {
	if st.footnote == nil {
		if strings.TrimSpace(tok.Value) != "" {
			return errors.NewStructuralDefect(string(tok.Kind), tok.Value, "outside a footnote")
		}
		return nil
	}
	if st.footnote.quoteOpen {
		st.footnote.text.WriteString("</i>")
		st.footnote.quoteOpen = false
	}
	st.footnote.text.WriteString(encoding.EscapeText(tok.Value))
	return nil
}

func renderFootnoteParagraph(st *State, _ usfm.Token, out *Output) error {
	if st.footnote != nil {
		st.footnote.text.WriteString("<br />")
		return nil
	}
	out.WriteString("<br />")
	return nil
}

func renderFootnoteEnd(st *State, _ usfm.Token, _ *Output) error {
	closeFootnote(st)
	return nil
}

// closeFootnote stores the open footnote, if any, and advances the sequence.
func closeFootnote(st *State) {
	fn := st.footnote
	if fn == nil {
		return
	}
	if fn.quoteOpen {
		fn.text.WriteString("</i>")
	}
	st.Footnotes = append(st.Footnotes, Footnote{
		Key:      fn.key,
		Book:     st.Book,
		Chapter:  st.Chapter,
		Verse:    st.Verse,
		Sequence: fn.sequence,
		Text:     fn.text.String(),
	})
	st.NextFootnote = fn.sequence + 1
	st.footnote = nil
}

// flushFootnotes writes the footnotes collected since the last flush.
// They are already in key order because they were appended in document order.
func flushFootnotes(st *State, out *Output) {
	if len(st.Footnotes) == 0 {
		return
	}
	out.WriteString(`<div class="footnotes">`)
	out.WriteString(`<hr class="footnotes-hr"/>`)
	for _, fn := range st.Footnotes {
		attr := encoding.EscapeXMLAttr(fn.Key)
		fmt.Fprintf(out, `<div id="%s" class="footnote">%s:%s <sup><i>[<a href="#ref-%s">%d</a>]</i></sup><span class="text">%s</span></div>`,
			attr, encoding.EscapeText(displayNumber(fn.Chapter)), encoding.EscapeText(displayNumber(fn.Verse)), attr, fn.Sequence, fn.Text)
	}
	out.WriteString("</div>")
	out.footnotes = append(out.footnotes, st.Footnotes...)
	st.Footnotes = nil
}

func displayNumber(padded string) string {
	if n := strings.TrimLeft(padded, "0"); n != "" {
		return n
	}
	return "0"
}

func openInline(st *State, tok usfm.Token, out *Output) error {
	out.WriteString(inlineTags[tok.Kind][0])
	st.Inline = append(st.Inline, tok.Kind)
	return nil
}

// closeInlineKind closes the innermost open style of kind start, closing any
// styles opened inside it first.
func closeInlineKind(start usfm.MarkerKind) transition {
	return func(st *State, tok usfm.Token, out *Output) error {
		for i := len(st.Inline) - 1; i >= 0; i-- {
			if st.Inline[i] != start {
				continue
			}
			for j := len(st.Inline) - 1; j >= i; j-- {
				out.WriteString(inlineTags[st.Inline[j]][1])
			}
			st.Inline = st.Inline[:i]
			return nil
		}
		return errors.NewStructuralDefect(string(tok.Kind), "", "has no matching start")
	}
}

func closeInline(st *State, out *Output) {
	for i := len(st.Inline) - 1; i >= 0; i-- {
		out.WriteString(inlineTags[st.Inline[i]][1])
	}
	st.Inline = nil
}

// closeBlock ends the open paragraph or indent block.
func closeBlock(st *State, out *Output) {
	closeInline(st, out)
	if st.Block.Kind != BlockClosed {
		out.WriteString("</p>\n")
	}
	st.Block = Block{}
}

// closeLists ends every open list.
func closeLists(st *State, out *Output) {
	if st.ListDepth == 0 {
		return
	}
	closeInline(st, out)
	for st.ListDepth > 0 {
		out.WriteString("</ul>")
		st.ListDepth--
	}
}

func renderAcrosticHeading(st *State, tok usfm.Token, out *Output) error {
	closeBlock(st, out)
	out.WriteString(`<p class="quote acrostic heading" style="text-align:center;text-style:italic;">` + encoding.EscapeText(tok.Value) + "</p>")
	return nil
}

func renderText(_ *State, tok usfm.Token, out *Output) error {
	out.WriteString(" " + encoding.EscapeText(tok.Value) + " ")
	return nil
}
