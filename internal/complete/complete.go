// Package complete provides the keyword vocabulary behind the editor's
// completion popup.
package complete

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed keywords.yaml
var defaultKeywordsYAML []byte

// Keyword is one vocabulary entry.
type Keyword struct {
	Name string `yaml:"name"`
	Doc  string `yaml:"doc"`
}

type vocabularyFile struct {
	Keywords []Keyword `yaml:"keywords"`
}

// Index holds a fixed, ordered vocabulary. The order is the display order of
// suggestions.
type Index struct {
	words []Keyword
}

// New creates an index over the given words, in order.
func New(words ...string) *Index {
	ix := &Index{words: make([]Keyword, 0, len(words))}
	for _, w := range words {
		ix.add(Keyword{Name: w})
	}
	return ix
}

// Default returns the built-in script vocabulary.
func Default() *Index {
	ix, err := Parse(defaultKeywordsYAML)
	if err != nil {
		panic("embedded keyword vocabulary is invalid: " + err.Error())
	}
	return ix
}

// Parse reads a YAML vocabulary document.
func Parse(data []byte) (*Index, error) {
	var vf vocabularyFile
	if err := yaml.Unmarshal(data, &vf); err != nil {
		return nil, fmt.Errorf("parse vocabulary: %w", err)
	}
	ix := &Index{}
	for _, k := range vf.Keywords {
		ix.add(k)
	}
	return ix, nil
}

// LoadFile reads a YAML vocabulary file from disk.
func LoadFile(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Merge appends the words of other that are not already present.
func (ix *Index) Merge(other *Index) {
	if other == nil {
		return
	}
	for _, k := range other.words {
		ix.add(k)
	}
}

func (ix *Index) add(k Keyword) {
	k.Name = strings.TrimSpace(k.Name)
	if k.Name == "" {
		return
	}
	for _, existing := range ix.words {
		if existing.Name == k.Name {
			return
		}
	}
	ix.words = append(ix.words, k)
}

// Len returns the vocabulary size.
func (ix *Index) Len() int {
	return len(ix.words)
}

// Keywords returns the vocabulary in order.
func (ix *Index) Keywords() []Keyword {
	return ix.words
}

// Doc returns the description recorded for name, or "".
func (ix *Index) Doc(name string) string {
	for _, k := range ix.words {
		if k.Name == name {
			return k.Doc
		}
	}
	return ""
}

// SuggestionsFor returns the words starting with prefix, compared without
// regard to case, in vocabulary order. An empty prefix matches nothing.
func (ix *Index) SuggestionsFor(prefix string) []string {
	if prefix == "" {
		return nil
	}
	p := strings.ToLower(prefix)
	var out []string
	for _, k := range ix.words {
		if strings.HasPrefix(strings.ToLower(k.Name), p) {
			out = append(out, k.Name)
		}
	}
	return out
}
