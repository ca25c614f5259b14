package models

// AppliedComment is the slice of a commentor the analysis service needs to
// avoid duplicating or overlapping existing comments.
type AppliedComment struct {
	Phrase  string `json:"phrase"`
	Voice   string `json:"voice"`
	Comment string `json:"comment"`
}

// AnalysisRequest is one outbound call to the analysis service. Text is the
// completed-sentence prefix, not the full document.
type AnalysisRequest struct {
	Text              string           `json:"text"`
	SessionID         string           `json:"session_id"`
	Personas          []Persona        `json:"voices"`
	Applied           []AppliedComment `json:"applied_comments"`
	MetaPrompt        string           `json:"meta_prompt,omitempty"`
	StatePrompt       string           `json:"state_prompt,omitempty"`
	OverlappedPhrases []string         `json:"overlapped_phrases,omitempty"`
	NotFoundPhrases   []string         `json:"not_found_phrases,omitempty"`
}

// CommentCandidate is the at-most-one new comment an analysis call yields.
type CommentCandidate struct {
	Phrase  string `json:"phrase"`
	VoiceID string `json:"voice_id"`
	Voice   string `json:"voice"`
	Comment string `json:"comment"`
	Icon    string `json:"icon"`
	Color   string `json:"color"`
}

// AnalysisResult is the analysis service response.
type AnalysisResult struct {
	Comment     *CommentCandidate `json:"comment"`
	NewPersonas int               `json:"new_voices_added"`
}

// ChatRequest is one turn of conversation with a voice persona.
type ChatRequest struct {
	Persona      Persona       `json:"voice_config"`
	History      []ChatMessage `json:"conversation_history"`
	UserMessage  string        `json:"user_message"`
	DocumentText string        `json:"original_text,omitempty"`
	MetaPrompt   string        `json:"meta_prompt,omitempty"`
	StatePrompt  string        `json:"state_prompt,omitempty"`
}

// PromptContext carries the per-user prompt configuration every analysis
// and chat call includes.
type PromptContext struct {
	Personas    []Persona
	MetaPrompt  string
	StatePrompt string
}

// EnabledPersonas filters the context roster down to enabled personas.
func (c PromptContext) EnabledPersonas() []Persona {
	var enabled []Persona
	for _, p := range c.Personas {
		if p.Enabled {
			enabled = append(enabled, p)
		}
	}
	return enabled
}
