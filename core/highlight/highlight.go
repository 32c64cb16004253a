// Package highlight marks located phrases in rendered verse HTML.
//
// Words are only ever matched inside text nodes, never inside tags or
// attribute values, and verse numbers, chapter headings and footnote
// references are skipped. The first miss abandons the whole verse: callers
// receive an error and the input is left untouched.
package highlight

import (
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/FocuswithJustin/versemark/core/align"
	"github.com/FocuswithJustin/versemark/core/encoding"
	"github.com/FocuswithJustin/versemark/core/errors"
)

// DefaultElement wraps highlighted words when no element name is given.
const DefaultElement = "span"

// Highlight wraps each group of words in an element of type tagPrefix with
// classes "highlight phrase phrase-N", N being the group's 1-based index, and
// "split" appended when there is more than one group. It returns an error
// wrapping errors.ErrHighlightNotFound when any word cannot be bound.
func Highlight(src string, groups align.MatchGroups, tagPrefix string) (string, error) {
	return mark(src, groups, tagPrefix, func(i int) int { return i + 1 })
}

// HighlightPhrase is like Highlight but numbers every group with phrase, so
// that all groups of one note share a class.
func HighlightPhrase(src string, groups align.MatchGroups, tagPrefix string, phrase int) (string, error) {
	return mark(src, groups, tagPrefix, func(int) int { return phrase })
}

// Class returns the class attribute value for phrase n.
func Class(n int, split bool) string {
	class := "highlight phrase phrase-" + strconv.Itoa(n)
	if split {
		class += " split"
	}
	return class
}

// segment is a text node of the source, addressed by byte offsets.
type segment struct {
	start, end int
	skip       bool
}

// span is a bound word.
type span struct {
	start, end int
}

func mark(src string, groups align.MatchGroups, tagPrefix string, number func(int) int) (string, error) {
	if groups.Words() == 0 {
		return "", errors.Wrap(errors.ErrHighlightNotFound, "no words to highlight")
	}
	if tagPrefix == "" {
		tagPrefix = DefaultElement
	}

	segments := textSegments(src)
	index := wordIndex{src: src, segments: segments, cache: map[string][]span{}}

	bound := make([][]span, len(groups))
	last := -1
	for gi, g := range groups {
		for _, t := range g {
			occ := t.Occurrence
			if occ < 1 {
				occ = 1
			}
			hits := index.find(t.Text)
			if occ > len(hits) || hits[occ-1].start < last {
				return "", &errors.HighlightNotFoundError{Group: gi + 1, Word: t.Text, Occurrence: occ}
			}
			hit := hits[occ-1]
			bound[gi] = append(bound[gi], hit)
			last = hit.end
		}
	}

	type insertion struct {
		at   int
		text string
	}
	var inserts []insertion
	split := len(groups) > 1
	closeTag := "</" + tagPrefix + ">"
	for gi, words := range bound {
		if len(words) == 0 {
			continue
		}
		openTag := "<" + tagPrefix + ` class="` + Class(number(gi), split) + `">`
		from, to := words[0].start, words[len(words)-1].end
		for _, seg := range segments {
			if seg.skip || seg.end <= from || seg.start >= to {
				continue
			}
			s, e := max(seg.start, from), min(seg.end, to)
			for s < e && isSpace(src[s]) {
				s++
			}
			for e > s && isSpace(src[e-1]) {
				e--
			}
			if s == e {
				continue
			}
			inserts = append(inserts, insertion{s, openTag}, insertion{e, closeTag})
		}
	}
	sort.SliceStable(inserts, func(i, j int) bool { return inserts[i].at < inserts[j].at })

	var b strings.Builder
	b.Grow(len(src) + len(inserts)*len(closeTag)*4)
	pos := 0
	for _, ins := range inserts {
		b.WriteString(src[pos:ins.at])
		b.WriteString(ins.text)
		pos = ins.at
	}
	b.WriteString(src[pos:])
	return b.String(), nil
}

// textSegments tokenizes src and returns its text nodes in order. Text inside
// verse numbers, chapter headings, footnote references and the footnote block
// is marked skip.
func textSegments(src string) []segment {
	z := html.NewTokenizer(strings.NewReader(src))
	type open struct {
		name string
		skip bool
	}
	var stack []open
	var segments []segment
	offset := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// io.EOF, or input the tokenizer gave up on.
			return segments
		}
		raw := len(z.Raw())
		parentSkip := len(stack) > 0 && stack[len(stack)-1].skip

		switch tt {
		case html.TextToken:
			segments = append(segments, segment{start: offset, end: offset + raw, skip: parentSkip})
		case html.StartTagToken:
			name, hasAttr := z.TagName()
			tag := string(name)
			skip := parentSkip
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				if skippedAttr(string(key), string(val)) {
					skip = true
				}
			}
			if !voidElements[tag] {
				stack = append(stack, open{name: tag, skip: skip})
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			for i := len(stack) - 1; i >= 0; i-- {
				if stack[i].name == string(name) {
					stack = stack[:i]
					break
				}
			}
		}
		offset += raw
	}
}

var voidElements = map[string]bool{
	"br": true, "hr": true, "img": true, "meta": true, "link": true, "input": true,
}

var skippedClasses = map[string]bool{
	"v-num": true, "c-num": true, "footnotes": true,
}

func skippedAttr(key, val string) bool {
	switch key {
	case "class":
		for _, c := range strings.Fields(val) {
			if skippedClasses[c] {
				return true
			}
		}
	case "id":
		return strings.HasPrefix(val, "ref-fn-")
	}
	return false
}

// wordIndex finds whole-word occurrences of escaped words in text segments.
type wordIndex struct {
	src      string
	segments []segment
	cache    map[string][]span
}

func (w *wordIndex) find(word string) []span {
	if hits, ok := w.cache[word]; ok {
		return hits
	}
	needle := encoding.EscapeHTML(word)
	var hits []span
	if needle != "" {
		for _, seg := range w.segments {
			if seg.skip {
				continue
			}
			text := w.src[seg.start:seg.end]
			for from := 0; ; {
				i := strings.Index(text[from:], needle)
				if i < 0 {
					break
				}
				s := from + i
				e := s + len(needle)
				if wordBoundary(text, s, e) {
					hits = append(hits, span{start: seg.start + s, end: seg.start + e})
				}
				from = s + 1
			}
		}
	}
	w.cache[word] = hits
	return hits
}

// wordBoundary reports whether text[s:e] is a whole word that is not part of
// a character reference. An apostrophe or hyphen between letters joins two
// words into one, so "God" does not match inside "God's" or "God-fearing".
func wordBoundary(text string, s, e int) bool {
	if s > 0 {
		r, n := utf8.DecodeLastRuneInString(text[:s])
		if isWordRune(r) || r == '&' || r == '#' {
			return false
		}
		if isJoiner(r) && s-n > 0 {
			if p, _ := utf8.DecodeLastRuneInString(text[:s-n]); unicode.IsLetter(p) {
				return false
			}
		}
	}
	if e < len(text) {
		r, n := utf8.DecodeRuneInString(text[e:])
		if isWordRune(r) {
			return false
		}
		if isJoiner(r) && e+n < len(text) {
			if q, _ := utf8.DecodeRuneInString(text[e+n:]); unicode.IsLetter(q) {
				return false
			}
		}
	}
	return true
}

func isJoiner(r rune) bool {
	return r == '\'' || r == '’' || r == '-'
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\t' || c == '\r'
}
