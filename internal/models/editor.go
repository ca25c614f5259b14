package models

import "encoding/json"

// Cell types
const (
	CellTypeText   = "text"
	CellTypeWidget = "widget"
)

// Cell is one segment of the document. Text cells carry content; widget
// cells carry an opaque payload the engine never interprets.
type Cell struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"` // "text" or "widget"
	Content    string          `json:"content,omitempty"`
	WidgetType string          `json:"widgetType,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// IsText reports whether the cell is a text cell.
func (c Cell) IsText() bool {
	return c.Type == CellTypeText
}

// Comment feedback values
const (
	FeedbackStar = "star"
	FeedbackKill = "kill"
)

// Commentor is a voice comment anchored to a phrase in the document.
// Once created it is never deleted, only marked (applied, feedback).
type Commentor struct {
	ID           string        `json:"id"`
	Phrase       string        `json:"phrase"`
	VoiceID      string        `json:"voiceId,omitempty"`
	Voice        string        `json:"voice"`
	Comment      string        `json:"comment"`
	Icon         string        `json:"icon"`
	Color        string        `json:"color"`
	ComputedAt   int64         `json:"computedAt"` // Unix milliseconds
	TextSnapshot string        `json:"textSnapshot"`
	AppliedAt    *int64        `json:"appliedAt,omitempty"` // Unix milliseconds, nil until admitted
	ChatHistory  []ChatMessage `json:"chatHistory,omitempty"`
	Feedback     string        `json:"feedback,omitempty"` // "star" or "kill"
}

// Applied reports whether the commentor has been admitted into the document.
func (c Commentor) Applied() bool {
	return c.AppliedAt != nil
}

// ChatMessage is a single turn in a commentor's conversation.
type ChatMessage struct {
	Role      string `json:"role"` // "user" or "assistant"
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"` // Unix milliseconds
}

// WeightEntry is one record in the append-only writing-effort ledger.
// Energy never decreases: Delta floors at zero when text shrinks.
type WeightEntry struct {
	Timestamp int64  `json:"timestamp"` // Unix milliseconds
	Text      string `json:"text"`
	Weight    int    `json:"weight"`
	Delta     int    `json:"delta"`
	Energy    int    `json:"energy"`
}

// EditorState is the root aggregate the engine owns. It is the entire
// durable contract: serializing and loading it back must be lossless.
type EditorState struct {
	SessionID         string        `json:"sessionId"`
	CurrentEntryID    string        `json:"currentEntryId,omitempty"`
	Cells             []Cell        `json:"cells"`
	Commentors        []Commentor   `json:"commentors"`
	WeightPath        []WeightEntry `json:"weightPath"`
	OverlappedPhrases []string      `json:"overlappedPhrases"`
	NotFoundPhrases   []string      `json:"notFoundPhrases"`
}

// Energy returns the accumulated energy (last ledger entry, or 0).
func (s *EditorState) Energy() int {
	if len(s.WeightPath) == 0 {
		return 0
	}
	return s.WeightPath[len(s.WeightPath)-1].Energy
}

// Text reconstructs the full document text from the text cells.
func (s *EditorState) Text() string {
	var out []byte
	for _, cell := range s.Cells {
		if cell.IsText() {
			out = append(out, cell.Content...)
		}
	}
	return string(out)
}

// AppliedCommentors returns the commentors admitted into the document,
// in insertion order.
func (s *EditorState) AppliedCommentors() []Commentor {
	var applied []Commentor
	for _, c := range s.Commentors {
		if c.Applied() {
			applied = append(applied, c)
		}
	}
	return applied
}
