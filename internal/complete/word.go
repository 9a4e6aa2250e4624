package complete

import "unicode"

// IsWordRune reports whether r can be part of an identifier.
func IsWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// WordAt returns the run of identifier characters that ends at caret, and the
// column where it starts. A leading '@' belongs to the word, so header
// directives such as @NAME complete. Characters after the caret are not part
// of the word.
func WordAt(line []rune, caret int) (string, int) {
	if caret > len(line) {
		caret = len(line)
	}
	if caret < 0 {
		caret = 0
	}
	start := caret
	for start > 0 && IsWordRune(line[start-1]) {
		start--
	}
	if start > 0 && line[start-1] == '@' {
		start--
	}
	return string(line[start:caret]), start
}

// Popup describes what the completion popup should do after an edit.
type Popup struct {
	Show   bool
	Anchor int // column the accepted completion replaces from
	Word   string
	Items  []string
}

// Trigger computes the popup state for the caret position on line. The popup
// is hidden when there is no word under the caret or nothing matches it.
func (ix *Index) Trigger(line []rune, caret int) Popup {
	word, start := WordAt(line, caret)
	if word == "" {
		return Popup{}
	}
	items := ix.SuggestionsFor(word)
	if len(items) == 0 {
		return Popup{Word: word, Anchor: start}
	}
	return Popup{Show: true, Anchor: start, Word: word, Items: items}
}
