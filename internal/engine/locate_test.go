package engine

import "testing"

func TestLocatePhrase_Exact(t *testing.T) {
	r, found := LocatePhrase("alpha beta gamma", "beta")
	if !found {
		t.Fatal("expected to find phrase")
	}
	if r.Start != 6 || r.End != 10 {
		t.Errorf("range = [%d,%d), want [6,10)", r.Start, r.End)
	}
}

func TestLocatePhrase_CaseInsensitive(t *testing.T) {
	if _, found := LocatePhrase("The Quick Fox", "the quick"); !found {
		t.Error("expected case-insensitive match")
	}
}

func TestLocatePhrase_WhitespaceDrift(t *testing.T) {
	r, found := LocatePhrase("one  two\n three", "one two three")
	if !found {
		t.Fatal("expected match across whitespace runs")
	}
	if r.Start != 0 || r.End != 15 {
		t.Errorf("range = [%d,%d), want [0,15)", r.Start, r.End)
	}
}

func TestLocatePhrase_PunctuationVariants(t *testing.T) {
	// Curly quotes from the service, straight quotes in the document.
	if _, found := LocatePhrase("it's fine", "it’s fine"); !found {
		t.Error("expected match across quote variants")
	}
	// Fullwidth comma in the document, ASCII in the phrase.
	if _, found := LocatePhrase("想了想，再说", "想了想,再说"); !found {
		t.Error("expected match across comma variants")
	}
}

func TestLocatePhrase_NotFound(t *testing.T) {
	if _, found := LocatePhrase("some document text", "absent phrase"); found {
		t.Error("expected no match")
	}
	if _, found := LocatePhrase("anything", ""); found {
		t.Error("empty phrase must not match")
	}
	if _, found := LocatePhrase("anything", "   "); found {
		t.Error("whitespace-only phrase must not match")
	}
}

func TestLocatePhrase_RuneOffsets(t *testing.T) {
	// Offsets are rune positions, not byte positions.
	r, found := LocatePhrase("中文在前 alpha", "alpha")
	if !found {
		t.Fatal("expected match")
	}
	if r.Start != 5 || r.End != 10 {
		t.Errorf("range = [%d,%d), want [5,10)", r.Start, r.End)
	}
}

func TestRangeOverlaps(t *testing.T) {
	tests := []struct {
		a, b Range
		want bool
	}{
		{Range{0, 5}, Range{3, 7}, true},
		{Range{0, 5}, Range{5, 7}, false}, // half-open: touching is not overlap
		{Range{3, 7}, Range{0, 5}, true},
		{Range{0, 2}, Range{4, 6}, false},
		{Range{0, 10}, Range{4, 6}, true},
	}
	for _, tt := range tests {
		if got := tt.a.Overlaps(tt.b); got != tt.want {
			t.Errorf("[%d,%d).Overlaps([%d,%d)) = %v, want %v",
				tt.a.Start, tt.a.End, tt.b.Start, tt.b.End, got, tt.want)
		}
	}
}
