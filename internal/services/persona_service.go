package services

import (
	"log"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"inkmemory/internal/config"
	"inkmemory/internal/models"
)

// PersonaService owns the voice persona roster. The roster comes from a
// YAML file and is hot-reloaded when the file changes; without a file the
// built-in defaults apply.
type PersonaService struct {
	path string

	mu       sync.RWMutex
	personas []models.Persona

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewPersonaService loads the roster from path. An empty path or a missing
// file falls back to the default roster.
func NewPersonaService(path string) *PersonaService {
	s := &PersonaService{
		path:     path,
		personas: models.DefaultPersonas(),
		done:     make(chan struct{}),
	}
	if path != "" {
		s.reload()
	}
	return s
}

// List returns a copy of the current roster.
func (s *PersonaService) List() []models.Persona {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Persona(nil), s.personas...)
}

// Get returns a persona by ID.
func (s *PersonaService) Get(id string) (models.Persona, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.PersonaByID(s.personas, id)
}

// Watch begins watching the roster file for changes. No-op without a path.
func (s *PersonaService) Watch() error {
	if s.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Watch the directory: editors replace the file, which drops a watch
	// on the file itself.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return err
	}
	s.watcher = watcher

	go func() {
		base := filepath.Base(s.path)
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != base {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					log.Printf("🔄 [PERSONAS] Roster file changed, reloading")
					s.reload()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("⚠️ [PERSONAS] Watcher error: %v", err)
			case <-s.done:
				return
			}
		}
	}()

	log.Printf("👁️ [PERSONAS] Watching %s", s.path)
	return nil
}

// Stop halts the file watcher.
func (s *PersonaService) Stop() {
	close(s.done)
	if s.watcher != nil {
		s.watcher.Close()
	}
}

func (s *PersonaService) reload() {
	personas, err := config.LoadPersonas(s.path)
	if err != nil {
		log.Printf("⚠️ [PERSONAS] Failed to load %s, keeping current roster: %v", s.path, err)
		return
	}

	s.mu.Lock()
	s.personas = personas
	s.mu.Unlock()
	log.Printf("✅ [PERSONAS] Loaded %d personas", len(personas))
}
