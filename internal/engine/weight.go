package engine

import (
	"time"
	"unicode"

	"inkmemory/internal/models"
)

// Character-class scores for ComputeWeight. Terminal punctuation is worth
// the most because finishing a sentence is the unit of writing effort the
// energy model pays out on.
const (
	weightTerminal = 4
	weightCJK      = 2
	weightDefault  = 1
)

const ideographicComma = '，'

func isTerminalRune(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？', '\n':
		return true
	}
	return false
}

func isCJKRune(r rune) bool {
	return unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r)
}

// ComputeWeight scores text in a single pass over its code points.
// Deterministic and total: equal strings always score equally and the
// empty string scores zero.
func ComputeWeight(text string) int {
	weight := 0
	for _, r := range text {
		switch {
		case isTerminalRune(r):
			weight += weightTerminal
		case r == ideographicComma:
			// The ideographic comma is free: it separates clauses, not effort.
		case isCJKRune(r):
			weight += weightCJK
		default:
			weight += weightDefault
		}
	}
	return weight
}

// recordMutation appends a WeightEntry for the current text. Energy is a
// ratchet: deletions can lower weight but delta floors at zero, so energy
// models cumulative writing effort, not document size.
func (e *Engine) recordMutation(text string) {
	weight := ComputeWeight(text)

	var prevWeight, prevEnergy int
	if n := len(e.state.WeightPath); n > 0 {
		prevWeight = e.state.WeightPath[n-1].Weight
		prevEnergy = e.state.WeightPath[n-1].Energy
	}

	delta := weight - prevWeight
	if delta < 0 {
		delta = 0
	}

	e.state.WeightPath = append(e.state.WeightPath, models.WeightEntry{
		Timestamp: time.Now().UnixMilli(),
		Text:      text,
		Weight:    weight,
		Delta:     delta,
		Energy:    prevEnergy + delta,
	})
}
