package highlight

import (
	"strings"
	"testing"

	"github.com/FocuswithJustin/versemark/core/align"
	"github.com/FocuswithJustin/versemark/core/errors"
	"github.com/FocuswithJustin/versemark/core/xml"
)

const verseNumber = ` <span id="gen-ch-001-v-001" class="v-num"><sup><b>1</b></sup></span>`

func group(words ...align.Target) align.Group {
	return align.Group(words)
}

func target(text string, occ int) align.Target {
	return align.Target{Text: text, Occurrence: occ}
}

func TestHighlightSingleWord(t *testing.T) {
	src := verseNumber + " In the beginning God created the heavens "
	got, err := Highlight(src, align.MatchGroups{group(target("God", 1))}, "span")
	if err != nil {
		t.Fatalf("Highlight failed: %v", err)
	}
	want := verseNumber + ` In the beginning <span class="highlight phrase phrase-1">God</span> created the heavens `
	if got != want {
		t.Errorf("Highlight() = %q, want %q", got, want)
	}
	if n := strings.Count(got, "highlight"); n != 1 {
		t.Errorf("found %d highlights, want 1", n)
	}
}

func TestHighlightOccurrence(t *testing.T) {
	src := " and the word and God and "
	got, err := Highlight(src, align.MatchGroups{group(target("and", 2))}, "")
	if err != nil {
		t.Fatalf("Highlight failed: %v", err)
	}
	want := ` and the word <span class="highlight phrase phrase-1">and</span> God and `
	if got != want {
		t.Errorf("Highlight() = %q, want %q", got, want)
	}
}

func TestHighlightWholeWordsOnly(t *testing.T) {
	tests := []struct {
		name string
		src  string
		word align.Target
		want string
	}{
		{
			name: "possessive",
			src:  "<p>God's Spirit moved. Then God said</p>",
			word: target("God", 1),
			want: `<p>God's Spirit moved. Then <span class="highlight phrase phrase-1">God</span> said</p>`,
		},
		{
			name: "curly apostrophe",
			src:  "<p>God’s Spirit moved. Then God said</p>",
			word: target("God", 1),
			want: `<p>God’s Spirit moved. Then <span class="highlight phrase phrase-1">God</span> said</p>`,
		},
		{
			name: "hyphenated",
			src:  "<p>a God-fearing man feared God</p>",
			word: target("God", 1),
			want: `<p>a God-fearing man feared <span class="highlight phrase phrase-1">God</span></p>`,
		},
		{
			name: "closing quote mark",
			src:  "<p>they said 'God' and left</p>",
			word: target("God", 1),
			want: `<p>they said '<span class="highlight phrase phrase-1">God</span>' and left</p>`,
		},
		{
			name: "dash between words",
			src:  "<p>the Lord - God of all</p>",
			word: target("God", 1),
			want: `<p>the Lord - <span class="highlight phrase phrase-1">God</span> of all</p>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Highlight(tt.src, align.MatchGroups{group(tt.word)}, "span")
			if err != nil {
				t.Fatalf("Highlight failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Highlight() = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := Highlight("<p>God's Spirit</p>", align.MatchGroups{group(target("God", 1))}, "span"); !errors.Is(err, errors.ErrHighlightNotFound) {
		t.Errorf("Highlight(possessive only) error = %v, want ErrHighlightNotFound", err)
	}
}

func TestHighlightSplit(t *testing.T) {
	src := " the word was with God "
	groups := align.MatchGroups{group(target("word", 1)), group(target("God", 1))}

	got, err := Highlight(src, groups, "span")
	if err != nil {
		t.Fatalf("Highlight failed: %v", err)
	}
	want := ` the <span class="highlight phrase phrase-1 split">word</span> was with <span class="highlight phrase phrase-2 split">God</span> `
	if got != want {
		t.Errorf("Highlight() = %q, want %q", got, want)
	}

	got, err = HighlightPhrase(src, groups, "span", 3)
	if err != nil {
		t.Fatalf("HighlightPhrase failed: %v", err)
	}
	if n := strings.Count(got, `class="highlight phrase phrase-3 split"`); n != 2 {
		t.Errorf("found %d phrase-3 split tags, want 2 in %q", n, got)
	}
}

func TestHighlightAllOrNothing(t *testing.T) {
	src := " the word was with God "
	groups := align.MatchGroups{group(target("word", 1)), group(target("Lord", 1))}

	got, err := Highlight(src, groups, "span")
	if err == nil {
		t.Fatalf("Highlight() = %q, want error", got)
	}
	if got != "" {
		t.Errorf("Highlight() returned partial output %q", got)
	}
	if !errors.Is(err, errors.ErrHighlightNotFound) {
		t.Errorf("error %v does not wrap ErrHighlightNotFound", err)
	}
	var miss *errors.HighlightNotFoundError
	if !errors.As(err, &miss) || miss.Group != 2 || miss.Word != "Lord" {
		t.Errorf("error = %#v", err)
	}
}

func TestHighlightNotFound(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		groups align.MatchGroups
	}{
		{"no groups", " God ", nil},
		{"occurrence beyond text", " God ", align.MatchGroups{group(target("God", 2))}},
		{"only inside attribute", `<span title="God">x</span>`, align.MatchGroups{group(target("God", 1))}},
		{"only inside word", " Godly ", align.MatchGroups{group(target("God", 1))}},
		{"out of order", " created God ", align.MatchGroups{group(target("God", 1), target("created", 1))}},
		{"only in footnotes", `<div class="footnotes"><div class="footnote">God</div></div>`, align.MatchGroups{group(target("God", 1))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, err := Highlight(tt.src, tt.groups, "span"); !errors.Is(err, errors.ErrHighlightNotFound) {
				t.Errorf("Highlight() = %q, %v; want ErrHighlightNotFound", got, err)
			}
		})
	}
}

func TestHighlightSkipsMarkup(t *testing.T) {
	src := `<span title="God">God</span>` + verseNumber + ` 1 cubit<span id="ref-fn-gen-001-001-001"><sup><i>[<a href="#fn-gen-001-001-001">1</a>]</i></sup></span> `
	got, err := Highlight(src, align.MatchGroups{group(target("God", 1)), group(target("1", 1))}, "span")
	if err != nil {
		t.Fatalf("Highlight failed: %v", err)
	}
	if !strings.HasPrefix(got, `<span title="God"><span class="highlight phrase phrase-1 split">God</span></span>`) {
		t.Errorf("attribute text was matched: %q", got)
	}
	if !strings.Contains(got, `</span> <span class="highlight phrase phrase-2 split">1</span> cubit`) {
		t.Errorf("verse number or footnote reference was matched: %q", got)
	}
}

func TestHighlightAcrossTags(t *testing.T) {
	src := " In <i> the </i> beginning "
	g := group(target("In", 1), target("the", 1), target("beginning", 1))

	got, err := Highlight(src, align.MatchGroups{g}, "span")
	if err != nil {
		t.Fatalf("Highlight failed: %v", err)
	}
	want := ` <span class="highlight phrase phrase-1">In</span> <i> <span class="highlight phrase phrase-1">the</span> </i> <span class="highlight phrase phrase-1">beginning</span> `
	if got != want {
		t.Errorf("Highlight() = %q, want %q", got, want)
	}
	if err := xml.CheckFragment(got); err != nil {
		t.Errorf("highlighted HTML is not well formed: %v", err)
	}
}

func TestHighlightEntities(t *testing.T) {
	src := " salt &amp; amp&nbsp;and A&amp;B "
	got, err := Highlight(src, align.MatchGroups{group(target("amp", 1))}, "mark")
	if err != nil {
		t.Fatalf("Highlight failed: %v", err)
	}
	want := ` salt &amp; <mark class="highlight phrase phrase-1">amp</mark>&nbsp;and A&amp;B `
	if got != want {
		t.Errorf("Highlight() = %q, want %q", got, want)
	}

	got, err = Highlight(src, align.MatchGroups{group(target("A&B", 1))}, "mark")
	if err != nil {
		t.Fatalf("Highlight(escaped word) failed: %v", err)
	}
	if !strings.Contains(got, `<mark class="highlight phrase phrase-1">A&amp;B</mark>`) {
		t.Errorf("escaped word not wrapped: %q", got)
	}
}

func TestClass(t *testing.T) {
	if got := Class(2, false); got != "highlight phrase phrase-2" {
		t.Errorf("Class(2, false) = %q", got)
	}
	if got := Class(1, true); got != "highlight phrase phrase-1 split" {
		t.Errorf("Class(1, true) = %q", got)
	}
}
