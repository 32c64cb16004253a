package align

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/versemark/core/usfm"
)

// quoteGrammar is the participle grammar for note quotes.
// Examples: "Θεός", "ἐν ἀρχῇ", "ὁ λόγος & θεὸν", "ἦν … πρὸς"
//
//nolint:govet // participle grammar tags are not standard struct tags
type quoteGrammar struct {
	First *quotePart   `@@`
	Rest  []*quotePart `( ( "&" | Ellipsis ) @@ )*`
}

//nolint:govet // participle grammar tags are not standard struct tags
type quotePart struct {
	Words []string `@Word+`
}

var quoteLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Ellipsis", Pattern: `…|\.\.\.`},
	{Name: "Amp", Pattern: `&`},
	{Name: "Word", Pattern: `[^\s&…]+`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var quoteParser = participle.MustBuild[quoteGrammar](
	participle.Lexer(quoteLexer),
	participle.Elide("Whitespace"),
)

// ParseQuote parses a quote string into words. Words after "&" or an
// ellipsis may be separated from the preceding word in the verse; all other
// words must be adjacent. Parsed words carry no per-word occurrence.
func ParseQuote(s string) (Quote, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty quote")
	}
	parsed, err := quoteParser.ParseString("", s)
	if err != nil {
		return nil, fmt.Errorf("invalid quote: %q: %w", s, err)
	}

	var q Quote
	for _, w := range parsed.First.Words {
		q = append(q, Word{Text: w})
	}
	for _, part := range parsed.Rest {
		for i, w := range part.Words {
			q = append(q, Word{Text: w, Gap: i == 0})
		}
	}
	return q, nil
}

// Ref is a book, chapter and verse.
type Ref struct {
	Book    string `json:"book"`
	Chapter int    `json:"chapter"`
	Verse   int    `json:"verse"`
}

// refGrammar is the participle grammar for verse references.
// Examples: "GEN 1:1", "1JN 3:16", "Rut 2:4"
//
//nolint:govet // participle grammar tags are not standard struct tags
type refGrammar struct {
	BookPrefix string `@Int?`
	BookName   string `@Ident`
	Chapter    int    `@Int`
	Verse      int    `":" @Int`
}

var refLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Ident", Pattern: `[A-Za-z]+`},
	{Name: "Punct", Pattern: `:`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var refParser = participle.MustBuild[refGrammar](
	participle.Lexer(refLexer),
	participle.Elide("Whitespace"),
)

// ParseReference parses a "BOOK chapter:verse" reference. The book must be a
// canonical book id.
func ParseReference(s string) (*Ref, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty reference string")
	}
	parsed, err := refParser.ParseString("", s)
	if err != nil {
		return nil, fmt.Errorf("invalid reference format: %q: %w", s, err)
	}
	book := strings.ToUpper(parsed.BookPrefix + parsed.BookName)
	if usfm.BookNumber(book) == 0 {
		return nil, fmt.Errorf("unknown book %q in reference %q", book, s)
	}
	return &Ref{Book: book, Chapter: parsed.Chapter, Verse: parsed.Verse}, nil
}

// String returns the reference as "BOOK c:v".
func (r *Ref) String() string {
	return fmt.Sprintf("%s %d:%d", r.Book, r.Chapter, r.Verse)
}
