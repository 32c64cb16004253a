// Package align resolves original-language quotes against a verse's word
// alignment and reports the target-language words they correspond to.
//
// An alignment Tree is the per-verse snapshot produced by the alignment
// provider. Locate walks its original-language words, selects the requested
// occurrence of the quote and maps it to target words, split into groups
// wherever the translation is not contiguous.
package align

import (
	"encoding/json"
	"strings"

	"github.com/FocuswithJustin/versemark/core/errors"
)

// NodeType distinguishes the kinds of alignment node.
type NodeType string

const (
	// NodeMilestone is an original-language word; its descendants are the
	// target words it aligns to.
	NodeMilestone NodeType = "milestone"
	// NodeWord is a target-language word.
	NodeWord NodeType = "word"
	// NodeText is unaligned text such as punctuation.
	NodeText NodeType = "text"
)

// Node is one alignment node.
type Node struct {
	Type NodeType `json:"type"`
	// Content is the original-language word of a milestone.
	Content string `json:"content,omitempty"`
	// Text is the target word or literal text.
	Text string `json:"text,omitempty"`
	// Occurrence is the 1-based occurrence of Content (milestones) or Text
	// (words) within the verse. Zero means not recorded.
	Occurrence  int     `json:"occurrence,omitempty"`
	Occurrences int     `json:"occurrences,omitempty"`
	Children    []*Node `json:"children,omitempty"`
}

// Tree is the alignment of one verse of one translation. It is read only.
type Tree struct {
	Bible   string  `json:"bible,omitempty"`
	Chapter int     `json:"chapter"`
	Verse   int     `json:"verse"`
	Nodes   []*Node `json:"nodes"`
}

// DecodeTree decodes a JSON alignment tree. A bare array is accepted as the
// node list of an unlabelled verse.
func DecodeTree(data []byte) (*Tree, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var nodes []*Node
		if err := json.Unmarshal(data, &nodes); err != nil {
			return nil, &errors.ParseError{Format: "alignment", Message: err.Error(), Err: err}
		}
		return &Tree{Nodes: nodes}, nil
	}
	var tree Tree
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, &errors.ParseError{Format: "alignment", Message: err.Error(), Err: err}
	}
	return &tree, nil
}

// source is an original-language word in verse order.
type source struct {
	text       string
	occurrence int
	// targets are the indexes of the target words aligned to this word.
	targets []int
}

// flatTree is a Tree with its words laid out in verse order.
type flatTree struct {
	sources []source
	targets []Target
}

// flatten lays the tree out. Target indexes count target words only, so
// punctuation never separates two words.
func (t *Tree) flatten() *flatTree {
	ft := &flatTree{}
	seenSource := map[string]int{}
	seenTarget := map[string]int{}

	var walk func(n *Node, open []int)
	walk = func(n *Node, open []int) {
		switch n.Type {
		case NodeMilestone:
			seenSource[n.Content]++
			occ := n.Occurrence
			if occ == 0 {
				occ = seenSource[n.Content]
			}
			ft.sources = append(ft.sources, source{text: n.Content, occurrence: occ})
			open = append(open, len(ft.sources)-1)
			for _, c := range n.Children {
				walk(c, open)
			}
		case NodeWord:
			seenTarget[n.Text]++
			occ := n.Occurrence
			if occ == 0 {
				occ = seenTarget[n.Text]
			}
			idx := len(ft.targets)
			ft.targets = append(ft.targets, Target{Text: n.Text, Occurrence: occ, Index: idx})
			for _, s := range open {
				ft.sources[s].targets = append(ft.sources[s].targets, idx)
			}
		}
	}
	for _, n := range t.Nodes {
		if n != nil {
			walk(n, nil)
		}
	}
	return ft
}

// SourceText returns the original-language words of the tree, space separated.
func (t *Tree) SourceText() string {
	if t == nil {
		return ""
	}
	ft := t.flatten()
	words := make([]string, len(ft.sources))
	for i, s := range ft.sources {
		words[i] = s.text
	}
	return strings.Join(words, " ")
}

// TargetText returns the target-language words of the tree, space separated.
func (t *Tree) TargetText() string {
	if t == nil {
		return ""
	}
	ft := t.flatten()
	words := make([]string, len(ft.targets))
	for i, w := range ft.targets {
		words[i] = w.Text
	}
	return strings.Join(words, " ")
}
