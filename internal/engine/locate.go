package engine

import (
	"strings"
	"unicode"
)

// Range is a half-open rune interval [Start, End) in the live document text.
type Range struct {
	Start int
	End   int
}

// Overlaps reports whether two half-open ranges intersect.
func (r Range) Overlaps(other Range) bool {
	return r.Start < other.End && other.Start < r.End
}

// punctuation variants the analysis service and the live document disagree
// on in practice: smart quotes, dash widths, fullwidth ASCII forms.
var punctVariants = map[rune]rune{
	'‘': '\'', // left single quote
	'’': '\'', // right single quote
	'“': '"',  // left double quote
	'”': '"',  // right double quote
	'–': '-',  // en dash
	'—': '-',  // em dash
	'…': '.',  // ellipsis
	'，':      ',',
	'。':      '.',
	'！':      '!',
	'？':      '?',
	'：':      ':',
	'；':      ';',
}

func normalizeRune(r rune) rune {
	if mapped, ok := punctVariants[r]; ok {
		return mapped
	}
	return unicode.ToLower(r)
}

// normalize lowercases text, unifies punctuation variants, and collapses
// whitespace runs to single spaces. The returned index slice maps each
// normalized rune back to the rune offset it came from in the original.
func normalize(text string) (string, []int) {
	var b strings.Builder
	var index []int
	lastSpace := true // leading whitespace is dropped entirely
	pos := 0
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteRune(' ')
				index = append(index, pos)
				lastSpace = true
			}
			pos++
			continue
		}
		b.WriteRune(normalizeRune(r))
		index = append(index, pos)
		lastSpace = false
		pos++
	}
	return b.String(), index
}

// LocatePhrase finds phrase in text, tolerating whitespace runs,
// punctuation variants, and case drift between what the analysis service
// extracted and what the document now contains. The returned range is in
// rune offsets of the original text.
func LocatePhrase(text, phrase string) (Range, bool) {
	normPhrase, _ := normalize(strings.TrimSpace(phrase))
	if normPhrase == "" {
		return Range{}, false
	}
	normText, index := normalize(text)

	at := strings.Index(normText, normPhrase)
	if at < 0 {
		return Range{}, false
	}

	// strings.Index returns a byte offset into the normalized string;
	// convert to a rune offset before consulting the index map.
	runeAt := len([]rune(normText[:at]))
	runeLen := len([]rune(normPhrase))

	start := index[runeAt]
	end := index[runeAt+runeLen-1] + 1
	return Range{Start: start, End: end}, true
}
