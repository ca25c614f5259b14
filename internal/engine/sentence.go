package engine

import "regexp"

// Sentence boundaries include the ideographic comma as a soft boundary:
// a clause ending in 「，」 is complete enough to analyze, even though the
// weight model scores it as free.
var sentenceBoundary = regexp.MustCompile(`[.!?。！？，\n]+`)

// CompletedSentences returns the prefix of text made of completed
// sentences: every segment up to and including the last terminal
// punctuation run. A trailing unterminated remainder is discarded.
// Idempotent on already-terminated text.
func CompletedSentences(text string) string {
	matches := sentenceBoundary.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return ""
	}
	return text[:matches[len(matches)-1][1]]
}
