package align

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Word is one quoted original-language word.
type Word struct {
	Text string `json:"word" yaml:"word"`
	// Occurrence is the word's 1-based occurrence within the verse. Zero
	// places no constraint on which occurrence binds.
	Occurrence int `json:"occurrence,omitempty" yaml:"occurrence,omitempty"`
	// Gap allows any number of source words between this word and the
	// previous one. It is set for words following "&" or an ellipsis, and
	// for the first word of every sub-phrase after the first.
	Gap bool `json:"gap,omitempty" yaml:"gap,omitempty"`
	// PhraseOccurrence, on the first word of a sub-phrase, selects which
	// occurrence of the whole sub-phrase within the verse may bind.
	PhraseOccurrence int `json:"phrase_occurrence,omitempty" yaml:"phrase_occurrence,omitempty"`
}

// subPhrase is the list-element form of a quote: words that are adjacent
// in the verse, with the occurrence of the whole run.
type subPhrase struct {
	Word       string `json:"word" yaml:"word"`
	Occurrence int    `json:"occurrence,omitempty" yaml:"occurrence,omitempty"`
}

// fromSubPhrases expands sub-phrases into words. Each sub-phrase after the
// first may be separated from the previous one in the verse. A one-word
// sub-phrase keeps its occurrence on the word itself.
func fromSubPhrases(elems []subPhrase) (Quote, error) {
	var q Quote
	for i, e := range elems {
		words, err := ParseQuote(e.Word)
		if err != nil {
			return nil, err
		}
		if len(words) == 1 {
			words[0].Occurrence = e.Occurrence
		} else {
			words[0].PhraseOccurrence = e.Occurrence
		}
		words[0].Gap = i > 0
		q = append(q, words...)
	}
	return q, nil
}

// Quote is an ordered list of quoted words.
type Quote []Word

// Single returns a one-word quote.
func Single(w Word) Quote {
	return Quote{w}
}

// String renders the quote the way notes write it.
func (q Quote) String() string {
	var b strings.Builder
	for i, w := range q {
		if i > 0 {
			if w.Gap {
				b.WriteString(" & ")
			} else {
				b.WriteString(" ")
			}
		}
		b.WriteString(w.Text)
	}
	return b.String()
}

// UnmarshalJSON accepts a quote string, a single sub-phrase object or an
// ordered list of sub-phrase objects ({"word": "ἐν ἀρχῇ", "occurrence": 1}).
func (q *Quote) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	var elems []subPhrase
	switch {
	case strings.HasPrefix(trimmed, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseQuote(s)
		if err != nil {
			return err
		}
		*q = parsed
		return nil
	case strings.HasPrefix(trimmed, "{"):
		var e subPhrase
		if err := json.Unmarshal(data, &e); err != nil {
			return err
		}
		elems = []subPhrase{e}
	default:
		if err := json.Unmarshal(data, &elems); err != nil {
			return err
		}
	}
	parsed, err := fromSubPhrases(elems)
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

// UnmarshalYAML accepts the same three shapes as UnmarshalJSON.
func (q *Quote) UnmarshalYAML(value *yaml.Node) error {
	var elems []subPhrase
	switch value.Kind {
	case yaml.ScalarNode:
		parsed, err := ParseQuote(value.Value)
		if err != nil {
			return err
		}
		*q = parsed
		return nil
	case yaml.MappingNode:
		var e subPhrase
		if err := value.Decode(&e); err != nil {
			return err
		}
		elems = []subPhrase{e}
	default:
		if err := value.Decode(&elems); err != nil {
			return err
		}
	}
	parsed, err := fromSubPhrases(elems)
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

// ContextID identifies a quote within a verse.
type ContextID struct {
	Chapter    int   `json:"chapter"`
	Verse      int   `json:"verse"`
	Quote      Quote `json:"quote"`
	Occurrence int   `json:"occurrence"`
}

// Ref returns the chapter:verse reference of the context.
func (c ContextID) Ref() string {
	return fmt.Sprintf("%d:%d", c.Chapter, c.Verse)
}

// Target is a target-language word of a match.
type Target struct {
	Text string `json:"text"`
	// Occurrence is the word's 1-based occurrence within the verse.
	Occurrence int `json:"occurrence"`
	// Index is the word's position among the verse's target words.
	Index int `json:"index"`
}

// Group is a contiguous run of target words.
type Group []Target

// MatchGroups is the result of Locate. More than one group means the
// translation of the quote is split.
type MatchGroups []Group

// Split reports whether the match spans more than one group.
func (m MatchGroups) Split() bool {
	return len(m) > 1
}

// Words returns the number of target words in all groups.
func (m MatchGroups) Words() int {
	n := 0
	for _, g := range m {
		n += len(g)
	}
	return n
}

// Locate finds the occurrence-th run of quote among the tree's original
// words and returns the target words aligned to it. It returns nil when the
// tree is nil, the quote is empty or absent, or there are fewer than
// occurrence runs. An occurrence below 1 is treated as 1.
//
// Groups are ordered by target position, the order in which their words
// appear in the rendered verse. For a contiguous translation this is also
// source order.
func Locate(tree *Tree, quote Quote, occurrence int) MatchGroups {
	if tree == nil || len(quote) == 0 {
		return nil
	}
	if occurrence < 1 {
		occurrence = 1
	}
	ft := tree.flatten()
	parts := quote.parts(ft.sources)

	var runs [][]int
	for start := range ft.sources {
		if run := matchRun(parts, start); run != nil {
			runs = append(runs, run)
		}
	}
	if len(runs) < occurrence {
		return nil
	}
	return ft.groups(runs[occurrence-1])
}

// LocateContext locates a ContextID. A tree labelled with a different
// chapter or verse yields no match.
func LocateContext(tree *Tree, id ContextID) MatchGroups {
	if tree == nil {
		return nil
	}
	if (tree.Chapter != 0 && tree.Chapter != id.Chapter) || (tree.Verse != 0 && tree.Verse != id.Verse) {
		return nil
	}
	return Locate(tree, id.Quote, id.Occurrence)
}

// part is a stretch of quote words that must be adjacent in the verse.
// starts lists every source position where the whole stretch matches.
type part struct {
	words  []Word
	starts []int
}

// parts splits the quote before every Gap word and finds where each part
// matches in sources.
func (q Quote) parts(sources []source) []part {
	var out []part
	for i, w := range q {
		if i == 0 || w.Gap {
			out = append(out, part{})
		}
		out[len(out)-1].words = append(out[len(out)-1].words, w)
	}
	for i := range out {
		p := &out[i]
		for start := range sources {
			if p.matchesAt(sources, start) {
				p.starts = append(p.starts, start)
			}
		}
	}
	return out
}

func (p *part) matchesAt(sources []source, start int) bool {
	if start+len(p.words) > len(sources) {
		return false
	}
	for i, w := range p.words {
		if !w.matches(sources[start+i]) {
			return false
		}
	}
	return true
}

// next returns the first position at or after from where the part may
// bind, or -1. A part with a phrase occurrence binds only at that
// occurrence.
func (p *part) next(from int) int {
	if occ := p.words[0].PhraseOccurrence; occ > 0 {
		if occ <= len(p.starts) && p.starts[occ-1] >= from {
			return p.starts[occ-1]
		}
		return -1
	}
	if i := sort.SearchInts(p.starts, from); i < len(p.starts) {
		return p.starts[i]
	}
	return -1
}

// matchRun returns the source positions of the quote when its first part
// binds at start. Every later part binds at its nearest eligible position
// after the previous one.
func matchRun(parts []part, start int) []int {
	if parts[0].next(start) != start {
		return nil
	}
	var run []int
	pos := start
	for i := range parts {
		p := &parts[i]
		at := pos
		if i > 0 {
			if at = p.next(pos); at < 0 {
				return nil
			}
		}
		for j := range p.words {
			run = append(run, at+j)
		}
		pos = at + len(p.words)
	}
	return run
}

func (w Word) matches(s source) bool {
	if w.Text != s.text {
		return false
	}
	return w.Occurrence == 0 || w.Occurrence == s.occurrence
}

// groups maps a run of source positions to target words, partitioned into
// runs of consecutive target indexes.
func (ft *flatTree) groups(run []int) MatchGroups {
	seen := map[int]bool{}
	var indexes []int
	for _, pos := range run {
		for _, idx := range ft.sources[pos].targets {
			if !seen[idx] {
				seen[idx] = true
				indexes = append(indexes, idx)
			}
		}
	}
	if len(indexes) == 0 {
		return nil
	}
	sort.Ints(indexes)

	var out MatchGroups
	var cur Group
	for i, idx := range indexes {
		if i > 0 && idx != indexes[i-1]+1 {
			out = append(out, cur)
			cur = nil
		}
		cur = append(cur, ft.targets[idx])
	}
	return append(out, cur)
}

// FlattenGroups renders the matched words for display, joining groups with
// an ellipsis.
func FlattenGroups(groups MatchGroups) string {
	parts := make([]string, 0, len(groups))
	for _, g := range groups {
		words := make([]string, len(g))
		for i, t := range g {
			words[i] = t.Text
		}
		parts = append(parts, strings.Join(words, " "))
	}
	return strings.Join(parts, " … ")
}
