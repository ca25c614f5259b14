package engine

import "testing"

func TestCompletedSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"empty", "", ""},
		{"no terminal", "unfinished thought", ""},
		{"single sentence", "Done.", "Done."},
		{"trailing remainder dropped", "Done. But then", "Done."},
		{"multiple sentences", "One. Two! Three?", "One. Two! Three?"},
		{"newline terminates", "line one\nline two", "line one\n"},
		{"ideographic terminals", "好的。然后呢", "好的。"},
		{"ideographic comma is a soft boundary", "想了想，还没写完", "想了想，"},
		{"punctuation run kept whole", "What?! after", "What?!"},
	}

	for _, tt := range tests {
		if got := CompletedSentences(tt.text); got != tt.want {
			t.Errorf("%s: CompletedSentences(%q) = %q, want %q", tt.name, tt.text, got, tt.want)
		}
	}
}

func TestCompletedSentences_Idempotent(t *testing.T) {
	texts := []string{
		"One. Two! Three",
		"好的。然后，再说",
		"All done here.",
	}
	for _, text := range texts {
		once := CompletedSentences(text)
		if twice := CompletedSentences(once); twice != once {
			t.Errorf("not idempotent on %q: %q then %q", text, once, twice)
		}
	}
}
