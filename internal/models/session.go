package models

import (
	"encoding/json"
	"time"
)

// Session is a named, persisted editor session. State is the serialized
// EditorState snapshot taken on the session's last mutation.
type Session struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	State     json.RawMessage `json:"editor_state,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// SessionSummary is the listing shape: metadata without the full state.
type SessionSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	FirstLine string    `json:"first_line,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Preferences holds the user's prompt configuration: persona overrides,
// the meta prompt applied to every voice, and the selected state prompt.
type Preferences struct {
	VoiceConfigs  []Persona       `json:"voice_configs,omitempty"`
	MetaPrompt    string          `json:"meta_prompt,omitempty"`
	StateConfig   json.RawMessage `json:"state_config,omitempty"`
	SelectedState string          `json:"selected_state,omitempty"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Report types produced by the whole-notes analysis calls.
const (
	ReportTypeEchoes   = "echoes"
	ReportTypeTraits   = "traits"
	ReportTypePatterns = "patterns"
)

// Report is a stored whole-notes analysis result.
type Report struct {
	ID        int64           `json:"id"`
	Type      string          `json:"report_type"`
	Data      json.RawMessage `json:"report_data"`
	AllNotes  string          `json:"all_notes,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
