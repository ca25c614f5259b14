package services

import (
	"fmt"
	"time"

	"inkmemory/internal/database"
	"inkmemory/internal/models"
)

// PreferencesService manages the single stored preferences record: the
// user's voice roster overrides, meta prompt, and writing-state config.
type PreferencesService struct {
	db       *database.DB
	personas *PersonaService
}

// NewPreferencesService creates the preferences service.
func NewPreferencesService(db *database.DB, personas *PersonaService) *PreferencesService {
	return &PreferencesService{db: db, personas: personas}
}

// Get returns the stored preferences. When no voice configs have been
// saved, the response carries the default roster so clients always see a
// complete picture.
func (s *PreferencesService) Get() (*models.Preferences, error) {
	prefs, err := s.db.GetPreferences()
	if err != nil {
		return nil, err
	}
	if len(prefs.VoiceConfigs) == 0 {
		prefs.VoiceConfigs = s.personas.List()
	}
	return prefs, nil
}

// Save validates and persists preferences.
func (s *PreferencesService) Save(prefs *models.Preferences) error {
	seen := make(map[string]bool, len(prefs.VoiceConfigs))
	for _, p := range prefs.VoiceConfigs {
		if p.ID == "" {
			return fmt.Errorf("voice config missing id")
		}
		if seen[p.ID] {
			return fmt.Errorf("duplicate voice config: %s", p.ID)
		}
		seen[p.ID] = true
	}

	prefs.UpdatedAt = time.Now().UTC()
	return s.db.SavePreferences(prefs)
}
