// Package usfm defines the typed USFM marker vocabulary consumed by the renderer.
//
// Tokens are produced by an external tokenizer; this package only names the
// markers, records which of them carry a value, and decodes token streams that
// were serialized as JSON.
package usfm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/FocuswithJustin/versemark/core/errors"
)

// MarkerKind is the USFM marker name of a token, without the leading backslash.
type MarkerKind string

// Marker kinds. Closing character-style markers keep the trailing asterisk.
const (
	KindID     MarkerKind = "id"
	KindHeader MarkerKind = "h"
	KindTOC2   MarkerKind = "toc2"

	KindTitle1 MarkerKind = "mt"
	KindTitle2 MarkerKind = "mt2"
	KindTitle3 MarkerKind = "mt3"

	KindMajorSection1 MarkerKind = "ms1"
	KindMajorSection2 MarkerKind = "ms2"
	KindIntroTitle1   MarkerKind = "imt1"
	KindIntroTitle2   MarkerKind = "imt2"
	KindIntroTitle3   MarkerKind = "imt3"
	KindSection1      MarkerKind = "s1"
	KindSection2      MarkerKind = "s2"
	KindSection3      MarkerKind = "s3"
	KindChunkBreak    MarkerKind = "s5"
	KindChapterLabel  MarkerKind = "cl"

	KindParagraph       MarkerKind = "p"
	KindMargin          MarkerKind = "m"
	KindParagraphIndent MarkerKind = "pi"
	KindNoBreak         MarkerKind = "nb"
	KindBlankLine       MarkerKind = "b"
	KindPoetry          MarkerKind = "q"
	KindPoetry1         MarkerKind = "q1"
	KindPoetry2         MarkerKind = "q2"
	KindPoetry3         MarkerKind = "q3"
	KindListItem        MarkerKind = "li"
	KindListItem1       MarkerKind = "li1"
	KindListItem2       MarkerKind = "li2"
	KindListItem3       MarkerKind = "li3"

	KindChapter MarkerKind = "c"
	KindVerse   MarkerKind = "v"

	KindFootnoteStart      MarkerKind = "f"
	KindFootnoteText       MarkerKind = "ft"
	KindFootnoteQuoteStart MarkerKind = "fqa"
	KindFootnoteQuoteEnd   MarkerKind = "fqa*"
	KindFootnoteParagraph  MarkerKind = "fp"
	KindFootnoteEnd        MarkerKind = "f*"

	KindWordsOfJesusStart MarkerKind = "wj"
	KindWordsOfJesusEnd   MarkerKind = "wj*"
	KindItalicStart       MarkerKind = "it"
	KindItalicEnd         MarkerKind = "it*"
	KindNameOfDeityStart  MarkerKind = "nd"
	KindNameOfDeityEnd    MarkerKind = "nd*"
	KindSmallCapsStart    MarkerKind = "sc"
	KindSmallCapsEnd      MarkerKind = "sc*"
	KindEmphasisStart     MarkerKind = "em"
	KindEmphasisEnd       MarkerKind = "em*"
	KindSelahStart        MarkerKind = "qs"
	KindSelahEnd          MarkerKind = "qs*"
	KindAcrosticCharStart MarkerKind = "qac"
	KindAcrosticCharEnd   MarkerKind = "qac*"
	KindLineBreak         MarkerKind = "pbr"
	KindPageBreak         MarkerKind = "pb"
	KindPeripheral        MarkerKind = "periph"
	KindDescriptiveTitle  MarkerKind = "d"
	KindRightAligned      MarkerKind = "qr"
	KindAcrosticHeading   MarkerKind = "qa"

	KindText MarkerKind = "text"
)

// ValueRule says whether a marker kind carries a value.
type ValueRule int

const (
	// ValueNone markers must arrive without a value.
	ValueNone ValueRule = iota
	// ValueRequired markers must arrive with a non-empty value.
	ValueRequired
	// ValueOptional markers may carry a value.
	ValueOptional
)

var valueRules = map[MarkerKind]ValueRule{
	KindID:     ValueRequired,
	KindHeader: ValueRequired,
	KindTOC2:   ValueRequired,

	KindTitle1:        ValueOptional,
	KindTitle2:        ValueRequired,
	KindTitle3:        ValueRequired,
	KindMajorSection1: ValueRequired,
	KindMajorSection2: ValueRequired,
	KindIntroTitle1:   ValueRequired,
	KindIntroTitle2:   ValueRequired,
	KindIntroTitle3:   ValueRequired,
	KindSection1:      ValueRequired,
	KindSection2:      ValueRequired,
	KindSection3:      ValueRequired,
	KindChunkBreak:    ValueNone,
	KindChapterLabel:  ValueRequired,

	KindParagraph:       ValueNone,
	KindMargin:          ValueNone,
	KindParagraphIndent: ValueNone,
	KindNoBreak:         ValueNone,
	KindBlankLine:       ValueNone,
	KindPoetry:          ValueNone,
	KindPoetry1:         ValueNone,
	KindPoetry2:         ValueNone,
	KindPoetry3:         ValueNone,
	KindListItem:        ValueNone,
	KindListItem1:       ValueNone,
	KindListItem2:       ValueNone,
	KindListItem3:       ValueNone,

	KindChapter: ValueRequired,
	KindVerse:   ValueRequired,

	KindFootnoteStart:      ValueRequired,
	KindFootnoteText:       ValueRequired,
	KindFootnoteQuoteStart: ValueOptional,
	KindFootnoteQuoteEnd:   ValueOptional,
	KindFootnoteParagraph:  ValueNone,
	KindFootnoteEnd:        ValueNone,

	KindWordsOfJesusStart: ValueNone,
	KindWordsOfJesusEnd:   ValueNone,
	KindItalicStart:       ValueNone,
	KindItalicEnd:         ValueNone,
	KindNameOfDeityStart:  ValueNone,
	KindNameOfDeityEnd:    ValueNone,
	KindSmallCapsStart:    ValueNone,
	KindSmallCapsEnd:      ValueNone,
	KindEmphasisStart:     ValueNone,
	KindEmphasisEnd:       ValueNone,
	KindSelahStart:        ValueNone,
	KindSelahEnd:          ValueNone,
	KindAcrosticCharStart: ValueNone,
	KindAcrosticCharEnd:   ValueNone,
	KindLineBreak:         ValueNone,
	KindPageBreak:         ValueOptional,
	KindPeripheral:        ValueOptional,
	KindDescriptiveTitle:  ValueRequired,
	KindRightAligned:      ValueRequired,
	KindAcrosticHeading:   ValueRequired,

	KindText: ValueRequired,
}

// Known reports whether k is part of the marker vocabulary.
func (k MarkerKind) Known() bool {
	_, ok := valueRules[k]
	return ok
}

// ValueRule returns the value rule for k. Unknown kinds report ValueOptional.
func (k MarkerKind) ValueRule() ValueRule {
	if r, ok := valueRules[k]; ok {
		return r
	}
	return ValueOptional
}

// Token is one typed unit of a USFM stream.
type Token struct {
	Kind  MarkerKind `json:"kind"`
	Value string     `json:"value,omitempty"`
}

// String renders the token back in USFM-ish form for logs.
func (t Token) String() string {
	if t.Kind == KindText {
		return t.Value
	}
	if t.Value == "" {
		return `\` + string(t.Kind)
	}
	return `\` + string(t.Kind) + " " + t.Value
}

// Check validates the token's value against its marker's ValueRule.
// A nil result means the token can be applied as given.
func (t Token) Check() *errors.StructuralDefect {
	if !t.Kind.Known() {
		return errors.NewStructuralDefect(string(t.Kind), t.Value, "is not a known marker")
	}
	switch t.Kind.ValueRule() {
	case ValueNone:
		if strings.TrimSpace(t.Value) != "" {
			return errors.NewStructuralDefect(string(t.Kind), t.Value, "must not carry a value")
		}
	case ValueRequired:
		// Whitespace between character styles is still text.
		if t.Kind == KindText {
			if t.Value == "" {
				return errors.NewStructuralDefect(string(t.Kind), "", "requires a value")
			}
			return nil
		}
		if strings.TrimSpace(t.Value) == "" {
			return errors.NewStructuralDefect(string(t.Kind), "", "requires a value")
		}
	}
	return nil
}

// DecodeTokens decodes a JSON array of tokens.
func DecodeTokens(data []byte) ([]Token, error) {
	var tokens []Token
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, &errors.ParseError{Format: "token stream", Message: err.Error(), Err: err}
	}
	for i, tok := range tokens {
		if tok.Kind == "" {
			return nil, errors.NewParse("token stream", "", fmt.Sprintf("token %d has no kind", i))
		}
	}
	return tokens, nil
}

// EncodeTokens encodes tokens as an indented JSON array.
func EncodeTokens(tokens []Token) ([]byte, error) {
	return json.MarshalIndent(tokens, "", "  ")
}
