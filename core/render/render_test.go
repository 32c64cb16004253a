package render

import (
	"io"
	"log/slog"
	"math/rand"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/FocuswithJustin/versemark/core/errors"
	"github.com/FocuswithJustin/versemark/core/usfm"
	"github.com/FocuswithJustin/versemark/core/xml"
)

func tok(kind usfm.MarkerKind, value string) usfm.Token {
	return usfm.Token{Kind: kind, Value: value}
}

func quietOptions(book string) Options {
	return Options{Book: book, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestRenderFirstVerse(t *testing.T) {
	res := Render([]usfm.Token{
		tok(usfm.KindChapter, "1"),
		tok(usfm.KindVerse, "1"),
		tok(usfm.KindText, "In the beginning"),
	}, quietOptions("gen"))

	want := "\n<h1>Genesis</h1>\n" +
		"\n\n<h2 id=\"gen-ch-001\" class=\"c-num\">Chapter 1</h2>" +
		" <span id=\"gen-ch-001-v-001\" class=\"v-num\"><sup><b>1</b></sup></span>" +
		" In the beginning "
	if res.HTML != want {
		t.Errorf("HTML = %q, want %q", res.HTML, want)
	}
	if len(res.Footnotes) != 0 {
		t.Errorf("len(Footnotes) = %d, want 0", len(res.Footnotes))
	}
	if len(res.Defects) != 0 {
		t.Errorf("Defects = %v, want none", res.Defects)
	}
	if res.BookName != "Genesis" {
		t.Errorf("BookName = %q, want %q", res.BookName, "Genesis")
	}
}

func TestRenderFootnotes(t *testing.T) {
	res := Render([]usfm.Token{
		tok(usfm.KindID, "GEN EN_ULT"),
		tok(usfm.KindHeader, "Genesis"),
		tok(usfm.KindChapter, "1"),
		tok(usfm.KindParagraph, ""),
		tok(usfm.KindVerse, "1"),
		tok(usfm.KindText, "a"),
		tok(usfm.KindFootnoteStart, "+ "),
		tok(usfm.KindFootnoteText, "note one"),
		tok(usfm.KindFootnoteEnd, ""),
		tok(usfm.KindText, "b"),
		tok(usfm.KindFootnoteStart, "+"),
		tok(usfm.KindFootnoteText, "two"),
		tok(usfm.KindFootnoteQuoteStart, "quoted"),
		tok(usfm.KindFootnoteQuoteEnd, " rest"),
		tok(usfm.KindFootnoteEnd, ""),
		tok(usfm.KindChapter, "2"),
		tok(usfm.KindVerse, "1"),
		tok(usfm.KindFootnoteStart, "+ "),
		tok(usfm.KindFootnoteText, "three"),
		tok(usfm.KindFootnoteEnd, ""),
	}, quietOptions(""))

	if len(res.Defects) != 0 {
		t.Fatalf("Defects = %v, want none", res.Defects)
	}

	wantKeys := []string{"fn-gen-001-001-001", "fn-gen-001-001-002", "fn-gen-002-001-001"}
	var gotKeys []string
	for _, fn := range res.Footnotes {
		gotKeys = append(gotKeys, fn.Key)
	}
	if !reflect.DeepEqual(gotKeys, wantKeys) {
		t.Errorf("footnote keys = %v, want %v", gotKeys, wantKeys)
	}
	if !sort.StringsAreSorted(gotKeys) {
		t.Errorf("footnote keys %v are not in sorted order", gotKeys)
	}

	if got := res.Footnotes[1].Text; got != "two<i>quoted</i> rest" {
		t.Errorf("Footnotes[1].Text = %q", got)
	}
	if got := res.Footnotes[2].Sequence; got != 1 {
		t.Errorf("sequence after chapter change = %d, want 1", got)
	}

	doc, err := xml.ParseFragment(res.HTML)
	if err != nil {
		t.Fatalf("rendered HTML is not well formed: %v", err)
	}
	if got := doc.FootnoteKeys(); !reflect.DeepEqual(got, wantKeys) {
		t.Errorf("FootnoteKeys() = %v, want %v", got, wantKeys)
	}
	if !strings.Contains(res.HTML, `<span id="ref-fn-gen-001-001-002"><sup><i>[<a href="#fn-gen-001-001-002">2</a>]</i></sup></span>`) {
		t.Error("missing reference marker for second footnote")
	}
	if !strings.Contains(res.HTML, `<div id="fn-gen-001-001-001" class="footnote">1:1 <sup><i>[<a href="#ref-fn-gen-001-001-001">1</a>]</i></sup><span class="text">note one</span></div>`) {
		t.Error("missing footnote entry for 1:1")
	}

	// Chapter 1 footnotes are flushed before the chapter 2 heading.
	flush := strings.Index(res.HTML, `<div class="footnotes">`)
	ch2 := strings.Index(res.HTML, `id="gen-ch-002"`)
	if flush < 0 || ch2 < 0 || flush > ch2 {
		t.Errorf("footnotes flushed at %d, chapter 2 heading at %d", flush, ch2)
	}
}

func TestRenderFrontMatterFootnote(t *testing.T) {
	res := Render([]usfm.Token{
		tok(usfm.KindFootnoteStart, "+ "),
		tok(usfm.KindFootnoteText, "intro"),
		tok(usfm.KindFootnoteEnd, ""),
	}, quietOptions("gen"))

	if len(res.Footnotes) != 1 {
		t.Fatalf("len(Footnotes) = %d, want 1", len(res.Footnotes))
	}
	if got := res.Footnotes[0].Key; got != "fn-gen-000-000-001" {
		t.Errorf("Key = %q, want %q", got, "fn-gen-000-000-001")
	}
	if !strings.Contains(res.HTML, `class="footnote">0:0 `) {
		t.Errorf("front matter footnote entry not rendered: %q", res.HTML)
	}
}

func TestRenderDefects(t *testing.T) {
	tests := []struct {
		name       string
		tokens     []usfm.Token
		wantReason string
		wantHTML   string
	}{
		{
			name:       "value dropped from valueless marker",
			tokens:     []usfm.Token{tok(usfm.KindParagraph, "stray")},
			wantReason: "must not carry a value",
			wantHTML:   "\n\n<p></p>\n",
		},
		{
			name:       "unknown marker skipped",
			tokens:     []usfm.Token{tok("zz", "x")},
			wantReason: "is not a known marker",
			wantHTML:   "",
		},
		{
			name:       "chapter without number skipped",
			tokens:     []usfm.Token{tok(usfm.KindChapter, " ")},
			wantReason: "requires a value",
			wantHTML:   "",
		},
		{
			name:       "footnote text outside footnote",
			tokens:     []usfm.Token{tok(usfm.KindFootnoteText, "lost")},
			wantReason: "outside a footnote",
			wantHTML:   "",
		},
		{
			name:       "unmatched style close",
			tokens:     []usfm.Token{tok(usfm.KindItalicEnd, "")},
			wantReason: "has no matching start",
			wantHTML:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Render(tt.tokens, quietOptions(""))
			if len(res.Defects) != 1 {
				t.Fatalf("len(Defects) = %d, want 1", len(res.Defects))
			}
			var d *errors.StructuralDefect
			if !errors.As(res.Defects[0], &d) {
				t.Fatalf("defect %v is not a *StructuralDefect", res.Defects[0])
			}
			if d.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", d.Reason, tt.wantReason)
			}
			if d.Chapter != "000" || d.Verse != "000" {
				t.Errorf("location = %s:%s, want 000:000", d.Chapter, d.Verse)
			}
			if res.HTML != tt.wantHTML {
				t.Errorf("HTML = %q, want %q", res.HTML, tt.wantHTML)
			}
		})
	}
}

func TestRenderLists(t *testing.T) {
	res := Render([]usfm.Token{
		tok(usfm.KindListItem, ""),
		tok(usfm.KindText, "a"),
		tok(usfm.KindListItem2, ""),
		tok(usfm.KindText, "b"),
		tok(usfm.KindListItem1, ""),
		tok(usfm.KindText, "c"),
		tok(usfm.KindParagraph, ""),
	}, quietOptions(""))

	want := "<ul> a <ul> b </ul></ul><ul> c </ul>\n\n<p></p>\n"
	if res.HTML != want {
		t.Errorf("HTML = %q, want %q", res.HTML, want)
	}
}

func TestRenderInlineStyles(t *testing.T) {
	res := Render([]usfm.Token{
		tok(usfm.KindParagraph, ""),
		tok(usfm.KindItalicStart, ""),
		tok(usfm.KindText, "x"),
		tok(usfm.KindNameOfDeityStart, ""),
		tok(usfm.KindText, "Lord"),
		tok(usfm.KindItalicEnd, ""),
		tok(usfm.KindText, "y"),
		tok(usfm.KindParagraph, ""),
	}, quietOptions(""))

	want := "\n\n<p><i> x <span class=\"tetragrammaton\"> Lord </span></i> y </p>\n\n\n<p></p>\n"
	if res.HTML != want {
		t.Errorf("HTML = %q, want %q", res.HTML, want)
	}
}

func TestRenderWhitespaceText(t *testing.T) {
	res := Render([]usfm.Token{
		tok(usfm.KindParagraph, ""),
		tok(usfm.KindItalicStart, ""),
		tok(usfm.KindText, "a"),
		tok(usfm.KindItalicEnd, ""),
		tok(usfm.KindText, " "),
		tok(usfm.KindItalicStart, ""),
		tok(usfm.KindText, "b"),
		tok(usfm.KindItalicEnd, ""),
	}, quietOptions(""))

	if len(res.Defects) != 0 {
		t.Errorf("Defects = %v, want none", res.Defects)
	}
	want := "\n\n<p><i> a </i>   <i> b </i></p>\n"
	if res.HTML != want {
		t.Errorf("HTML = %q, want %q", res.HTML, want)
	}
}

func TestRenderIndentAndEscaping(t *testing.T) {
	res := Render([]usfm.Token{
		tok(usfm.KindPoetry2, ""),
		tok(usfm.KindText, "A & B~<C>"),
	}, quietOptions(""))

	want := "\n<p class=\"indent-2\">\n" + strings.Repeat("&nbsp;", 2*IndentSpaces) +
		" A &amp; B&nbsp;&lt;C&gt; </p>\n"
	if res.HTML != want {
		t.Errorf("HTML = %q, want %q", res.HTML, want)
	}
}

func TestRenderBookTitle(t *testing.T) {
	tests := []struct {
		name   string
		book   string
		tokens []usfm.Token
		want   string
	}{
		{
			name:   "header marker",
			tokens: []usfm.Token{tok(usfm.KindID, "RUT"), tok(usfm.KindHeader, "Ruth"), tok(usfm.KindTOC2, "Ru"), tok(usfm.KindChapter, "1")},
			want:   "Ruth",
		},
		{
			name:   "toc2 without header",
			tokens: []usfm.Token{tok(usfm.KindID, "EXO"), tok(usfm.KindTOC2, "Exodus"), tok(usfm.KindChapter, "1")},
			want:   "Exodus",
		},
		{
			name:   "canonical fallback",
			tokens: []usfm.Token{tok(usfm.KindID, "jhn"), tok(usfm.KindChapter, "1")},
			want:   "John",
		},
		{
			name:   "unknown book",
			book:   "xyz",
			tokens: []usfm.Token{tok(usfm.KindChapter, "1")},
			want:   "XYZ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Render(tt.tokens, quietOptions(tt.book))
			if res.BookName != tt.want {
				t.Errorf("BookName = %q, want %q", res.BookName, tt.want)
			}
			if n := strings.Count(res.HTML, "<h1>"); n != 1 {
				t.Errorf("found %d <h1> headings, want 1", n)
			}
		})
	}
}

func TestRenderChapterLabel(t *testing.T) {
	res := Render([]usfm.Token{
		tok(usfm.KindID, "PSA"),
		tok(usfm.KindChapterLabel, "Psalm"),
		tok(usfm.KindChapter, "23"),
		tok(usfm.KindID, "PRO"),
		tok(usfm.KindChapter, "1"),
	}, quietOptions(""))

	if !strings.Contains(res.HTML, `<h2 id="psa-ch-023" class="c-num">Psalm 23</h2>`) {
		t.Errorf("missing labelled chapter heading in %q", res.HTML)
	}
	if !strings.Contains(res.HTML, `<h2 id="pro-ch-001" class="c-num">Chapter 1</h2>`) {
		t.Errorf("label was not reset by \\id: %q", res.HTML)
	}
}

func TestRenderBalancedWhenUnclosed(t *testing.T) {
	res := Render([]usfm.Token{
		tok(usfm.KindID, "MAT"),
		tok(usfm.KindChapter, "5"),
		tok(usfm.KindPoetry1, ""),
		tok(usfm.KindWordsOfJesusStart, ""),
		tok(usfm.KindVerse, "3"),
		tok(usfm.KindText, "Blessed"),
		tok(usfm.KindListItem, ""),
		tok(usfm.KindText, "are"),
		tok(usfm.KindFootnoteStart, "+ "),
		tok(usfm.KindFootnoteText, "never closed"),
		tok(usfm.KindFootnoteQuoteStart, "poor"),
		tok(usfm.KindSection1, "Heading"),
		tok(usfm.KindEmphasisStart, ""),
		tok(usfm.KindText, "spirit"),
	}, quietOptions(""))

	if err := xml.CheckFragment(res.HTML); err != nil {
		t.Errorf("CheckFragment() = %v for %q", err, res.HTML)
	}
	if len(res.Footnotes) != 1 || res.Footnotes[0].Text != "never closed<i>poor</i>" {
		t.Errorf("Footnotes = %+v", res.Footnotes)
	}
}

// TestRenderAlwaysBalanced feeds random streams over the whole vocabulary and
// checks the output parses.
func TestRenderAlwaysBalanced(t *testing.T) {
	kinds := make([]usfm.MarkerKind, 0, len(dispatch))
	for k := range dispatch {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	values := []string{"", "1", "+ ", "word", "a & b"}
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 300; i++ {
		tokens := make([]usfm.Token, 40)
		for j := range tokens {
			tokens[j] = tok(kinds[rng.Intn(len(kinds))], values[rng.Intn(len(values))])
		}
		res := Render(tokens, quietOptions("gen"))
		if err := xml.CheckFragment(res.HTML); err != nil {
			t.Fatalf("stream %d: CheckFragment() = %v\ntokens: %v\nhtml: %q", i, err, tokens, res.HTML)
		}
	}
}

func TestStepValuelessFootnoteQuoteEnd(t *testing.T) {
	st := NewState(quietOptions("gen"))
	out := &Output{}
	if err := Step(st, tok(usfm.KindFootnoteQuoteEnd, ""), out); err != nil {
		t.Errorf("Step() = %v, want nil", err)
	}
	if st.FootnoteOpen() || st.FootnoteQuoteOpen() {
		t.Error("no footnote should be open")
	}
}

func TestFootnoteKey(t *testing.T) {
	if got := FootnoteKey("gen", "001", "002", 12); got != "fn-gen-001-002-012" {
		t.Errorf("FootnoteKey() = %q", got)
	}
}

func TestDocument(t *testing.T) {
	page := Document(&Result{HTML: "<p>x</p>", Book: "gen"})
	if !strings.Contains(page, "<title>GEN</title>") {
		t.Error("expected book key as fallback title")
	}
	if !strings.Contains(page, "<body>\n<p>x</p>") {
		t.Error("expected fragment inside body")
	}
	if !strings.HasSuffix(page, "</html>\n") {
		t.Error("expected closing html tag")
	}

	page = Document(&Result{Book: "gen", BookName: "Genesis"})
	if !strings.Contains(page, "<title>Genesis</title>") {
		t.Error("expected book name as title")
	}
}

func TestFixLinks(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{
			in:   ` word  <span id="ref-fn-gen-001-001-001">`,
			want: ` word<span id="ref-fn-gen-001-001-001">`,
		},
		{
			in:   `<sup><b>1</b></sup></span>  In`,
			want: `<sup><b>1</b></sup></span>In`,
		},
		{
			in:   `<i> x  </i>`,
			want: `<i> x</i>`,
		},
		{
			in:   `no change`,
			want: `no change`,
		},
	}

	for _, tt := range tests {
		if got := FixLinks(tt.in); got != tt.want {
			t.Errorf("FixLinks(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
