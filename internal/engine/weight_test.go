package engine

import (
	"strings"
	"testing"
)

func TestComputeWeight_CharacterClasses(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"plain ascii", "abc", 3},
		{"terminal period", "a.", 5},
		{"exclamation", "!", 4},
		{"question", "?", 4},
		{"newline", "\n", 4},
		{"ideographic period", "。", 4},
		{"ideographic exclamation", "！", 4},
		{"ideographic question", "？", 4},
		{"ideographic comma is free", "，", 0},
		{"han", "字", 2},
		{"hiragana", "ひ", 2},
		{"katakana", "カ", 2},
		{"mixed sentence", "我想。", 2 + 2 + 4},
		{"ascii sentence", "Hi there.", 8 + 4},
	}

	for _, tt := range tests {
		if got := ComputeWeight(tt.text); got != tt.want {
			t.Errorf("%s: ComputeWeight(%q) = %d, want %d", tt.name, tt.text, got, tt.want)
		}
	}
}

func TestComputeWeight_Deterministic(t *testing.T) {
	text := "Some text. 一些中文，还有更多。"
	first := ComputeWeight(text)
	for i := 0; i < 10; i++ {
		if got := ComputeWeight(text); got != first {
			t.Fatalf("ComputeWeight not deterministic: %d then %d", first, got)
		}
	}
}

func TestRecordMutation_EnergyMonotonic(t *testing.T) {
	e := New(Config{})

	// Grow, shrink, grow again: weight falls on deletion but energy must
	// only ever ratchet upward.
	mutations := []string{
		"Hello",
		"Hello world.",
		"Hello",
		"",
		"Hello world. More text!",
		"Short",
		strings.Repeat("x", 100),
	}

	for _, text := range mutations {
		e.recordMutation(text)
	}

	path := e.state.WeightPath
	if len(path) != len(mutations) {
		t.Fatalf("expected %d weight entries, got %d", len(mutations), len(path))
	}
	for i := 1; i < len(path); i++ {
		if path[i].Energy < path[i-1].Energy {
			t.Errorf("energy decreased at entry %d: %d -> %d", i, path[i-1].Energy, path[i].Energy)
		}
		if path[i].Delta < 0 {
			t.Errorf("negative delta at entry %d: %d", i, path[i].Delta)
		}
	}
}

func TestRecordMutation_DeltaFloorsAtZero(t *testing.T) {
	e := New(Config{})
	e.recordMutation("Hello world.")
	e.recordMutation("Hi")

	path := e.state.WeightPath
	if path[1].Weight >= path[0].Weight {
		t.Fatalf("test setup broken: weight should fall on deletion")
	}
	if path[1].Delta != 0 {
		t.Errorf("delta after deletion = %d, want 0", path[1].Delta)
	}
	if path[1].Energy != path[0].Energy {
		t.Errorf("energy changed on deletion: %d -> %d", path[0].Energy, path[1].Energy)
	}
}
