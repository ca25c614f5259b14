package models

// Persona is one inner-voice archetype that can comment on the text.
type Persona struct {
	ID           string `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	SystemPrompt string `json:"systemPrompt,omitempty" yaml:"system_prompt"`
	Icon         string `json:"icon" yaml:"icon"`
	Color        string `json:"color" yaml:"color"`
	Enabled      bool   `json:"enabled" yaml:"enabled"`
}

// DefaultPersonas returns the built-in Echo voice roster, used when no
// personas file is configured and as the fallback for unknown voice IDs.
func DefaultPersonas() []Persona {
	return []Persona{
		{
			ID:           "holder",
			Name:         "接纳者 (The Holder)",
			SystemPrompt: "Receives feelings without judgment. Validates what is present before anything else.",
			Icon:         "heart",
			Color:        "pink",
			Enabled:      true,
		},
		{
			ID:           "unpacker",
			Name:         "拆解者 (The Unpacker)",
			SystemPrompt: "Takes tangled thoughts apart piece by piece. Asks what is actually being said.",
			Icon:         "brain",
			Color:        "blue",
			Enabled:      true,
		},
		{
			ID:           "starter",
			Name:         "启动者 (The Starter)",
			SystemPrompt: "Pushes toward the smallest next action. Impatient with rumination.",
			Icon:         "fist",
			Color:        "yellow",
			Enabled:      true,
		},
		{
			ID:           "mirror",
			Name:         "照镜者 (The Mirror)",
			SystemPrompt: "Reflects patterns the writer may not see. Points at recurring shapes, gently.",
			Icon:         "eye",
			Color:        "green",
			Enabled:      true,
		},
		{
			ID:           "weaver",
			Name:         "连接者 (The Weaver)",
			SystemPrompt: "Connects this moment to other threads in the writer's life.",
			Icon:         "compass",
			Color:        "purple",
			Enabled:      true,
		},
		{
			ID:           "absurdist",
			Name:         "幽默者 (The Absurdist)",
			SystemPrompt: "Finds the joke hiding in the heaviness. Never punches down at the writer.",
			Icon:         "masks",
			Color:        "pink",
			Enabled:      true,
		},
	}
}

// PersonaByID looks up a persona in a roster.
func PersonaByID(personas []Persona, id string) (Persona, bool) {
	for _, p := range personas {
		if p.ID == id {
			return p, true
		}
	}
	return Persona{}, false
}
