package services

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"inkmemory/internal/database"
	"inkmemory/internal/engine"
	"inkmemory/internal/logging"
	"inkmemory/internal/models"
)

// SessionService owns the live engines, one per open session, and keeps
// their states persisted. WebSocket watchers register here to receive
// state snapshots after every mutation.
type SessionService struct {
	db             *database.DB
	client         engine.AnalysisClient
	threshold      int
	requestTimeout time.Duration

	personas *PersonaService

	mu       sync.Mutex
	engines  map[string]*engine.Engine
	watchers map[string]map[string]chan []byte
}

// NewSessionService creates the session service.
func NewSessionService(db *database.DB, client engine.AnalysisClient, threshold int, requestTimeout time.Duration) *SessionService {
	return &SessionService{
		db:             db,
		client:         client,
		threshold:      threshold,
		requestTimeout: requestTimeout,
		engines:        make(map[string]*engine.Engine),
		watchers:       make(map[string]map[string]chan []byte),
	}
}

// SetPersonaService sets the roster source used when preferences carry no
// voice configs.
func (s *SessionService) SetPersonaService(personas *PersonaService) {
	s.personas = personas
}

// CreateSession starts a new empty session and persists it.
func (s *SessionService) CreateSession(name string) (*models.Session, error) {
	id := uuid.New().String()

	eng := s.newEngine(id)
	s.mu.Lock()
	s.engines[id] = eng
	s.mu.Unlock()

	state, err := eng.Serialize()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize new session: %w", err)
	}
	if err := s.db.SaveSession(id, name, state); err != nil {
		return nil, err
	}

	log.Printf("✅ [SESSION] Created session %s", id)
	return s.db.GetSession(id)
}

// GetEngine returns the live engine for a session, loading its persisted
// state on first access.
func (s *SessionService) GetEngine(sessionID string) (*engine.Engine, error) {
	s.mu.Lock()
	if eng, ok := s.engines[sessionID]; ok {
		s.mu.Unlock()
		return eng, nil
	}
	s.mu.Unlock()

	sess, err := s.db.GetSession(sessionID)
	if err != nil {
		return nil, err
	}

	eng := s.newEngine(sessionID)
	if len(sess.State) > 0 {
		if err := eng.LoadState(sess.State); err != nil {
			return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
		}
	}

	s.mu.Lock()
	// Another request may have raced us here; keep the first engine.
	if existing, ok := s.engines[sessionID]; ok {
		s.mu.Unlock()
		return existing, nil
	}
	s.engines[sessionID] = eng
	s.mu.Unlock()

	return eng, nil
}

// GetSession returns the persisted session record.
func (s *SessionService) GetSession(sessionID string) (*models.Session, error) {
	return s.db.GetSession(sessionID)
}

// ListSessions returns summaries of all sessions, newest first.
func (s *SessionService) ListSessions() ([]models.SessionSummary, error) {
	return s.db.ListSessions()
}

// RenameSession updates a session's display name.
func (s *SessionService) RenameSession(sessionID, name string) error {
	sess, err := s.db.GetSession(sessionID)
	if err != nil {
		return err
	}
	return s.db.SaveSession(sessionID, name, sess.State)
}

// DeleteSession drops a session and its live engine.
func (s *SessionService) DeleteSession(sessionID string) error {
	s.mu.Lock()
	delete(s.engines, sessionID)
	for _, ch := range s.watchers[sessionID] {
		close(ch)
	}
	delete(s.watchers, sessionID)
	s.mu.Unlock()

	return s.db.DeleteSession(sessionID)
}

// Watch registers a state watcher for a session. The returned channel
// receives a serialized EditorState after every mutation; slow watchers
// miss intermediate snapshots rather than blocking the engine.
func (s *SessionService) Watch(sessionID string) (string, <-chan []byte) {
	id := uuid.New().String()
	ch := make(chan []byte, 8)

	s.mu.Lock()
	if s.watchers[sessionID] == nil {
		s.watchers[sessionID] = make(map[string]chan []byte)
	}
	s.watchers[sessionID][id] = ch
	s.mu.Unlock()

	log.Printf("✅ [SESSION] Watcher added for %s (total: %d)", sessionID, s.watcherCount(sessionID))
	return id, ch
}

// Unwatch removes a watcher.
func (s *SessionService) Unwatch(sessionID, watcherID string) {
	s.mu.Lock()
	if ch, ok := s.watchers[sessionID][watcherID]; ok {
		close(ch)
		delete(s.watchers[sessionID], watcherID)
	}
	s.mu.Unlock()
}

// EngineCount returns the number of live engines.
func (s *SessionService) EngineCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.engines)
}

func (s *SessionService) watcherCount(sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.watchers[sessionID])
}

func (s *SessionService) newEngine(sessionID string) *engine.Engine {
	eng := engine.New(engine.Config{
		SessionID:       sessionID,
		EnergyThreshold: s.threshold,
		Client:          s.client,
		Context:         s.promptContext,
		Logger:          logging.WithSession(sessionID),
		RequestTimeout:  s.requestTimeout,
	})
	eng.Subscribe(func(state *models.EditorState) {
		s.onStateChange(sessionID, state)
	})
	return eng
}

// onStateChange persists the snapshot and fans it out to watchers. Runs
// inside the engine's mutation path, so it must not block.
func (s *SessionService) onStateChange(sessionID string, state *models.EditorState) {
	data, err := json.Marshal(state)
	if err != nil {
		log.Printf("❌ [SESSION] Failed to marshal state for %s: %v", sessionID, err)
		return
	}

	if err := s.db.SaveSession(sessionID, "", data); err != nil {
		log.Printf("❌ [SESSION] Failed to persist state for %s: %v", sessionID, err)
	}

	s.mu.Lock()
	for _, ch := range s.watchers[sessionID] {
		select {
		case ch <- data:
		default:
			// Watcher is behind; it will catch up on the next snapshot.
		}
	}
	s.mu.Unlock()
}

// promptContext assembles the persona roster and prompts from stored
// preferences, falling back to the default roster.
func (s *SessionService) promptContext() models.PromptContext {
	prefs, err := s.db.GetPreferences()
	if err != nil {
		log.Printf("⚠️ [SESSION] Failed to load preferences, using defaults: %v", err)
		return models.PromptContext{Personas: s.defaultRoster()}
	}

	ctx := models.PromptContext{
		Personas:   prefs.VoiceConfigs,
		MetaPrompt: prefs.MetaPrompt,
	}
	if len(ctx.Personas) == 0 {
		ctx.Personas = s.defaultRoster()
	}
	ctx.StatePrompt = statePrompt(prefs)
	return ctx
}

func (s *SessionService) defaultRoster() []models.Persona {
	if s.personas != nil {
		return s.personas.List()
	}
	return models.DefaultPersonas()
}

// statePrompt resolves the selected writing-state prompt out of the
// free-form state config blob.
func statePrompt(prefs *models.Preferences) string {
	if prefs.SelectedState == "" || len(prefs.StateConfig) == 0 {
		return ""
	}
	var states map[string]struct {
		Prompt string `json:"prompt"`
	}
	if err := json.Unmarshal(prefs.StateConfig, &states); err != nil {
		return ""
	}
	return states[prefs.SelectedState].Prompt
}
