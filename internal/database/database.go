package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	_ "modernc.org/sqlite"

	"inkmemory/internal/models"
)

// DB wraps the SQL database connection
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection at the given path.
func New(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite handles one writer; more connections just contend.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ SQLite database connected")

	return &DB{db}, nil
}

// Initialize creates all required tables
func (db *DB) Initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		editor_state TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS preferences (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		voice_configs TEXT,
		meta_prompt TEXT,
		state_config TEXT,
		selected_state TEXT,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS analysis_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		report_type TEXT NOT NULL,
		report_data TEXT NOT NULL,
		all_notes TEXT,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);
	CREATE INDEX IF NOT EXISTS idx_reports_type ON analysis_reports(report_type, created_at);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	log.Println("✅ Database schema ready")
	return nil
}

// SaveSession inserts or updates a session snapshot.
func (db *DB) SaveSession(id, name string, state json.RawMessage) error {
	now := time.Now().UTC()
	_, err := db.Exec(`
		INSERT INTO sessions (id, name, editor_state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = CASE WHEN excluded.name != '' THEN excluded.name ELSE sessions.name END,
			editor_state = excluded.editor_state,
			updated_at = excluded.updated_at
	`, id, name, string(state), now, now)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// GetSession returns a session with its full editor state.
func (db *DB) GetSession(id string) (*models.Session, error) {
	var s models.Session
	var state string
	err := db.QueryRow(`
		SELECT id, name, editor_state, created_at, updated_at
		FROM sessions WHERE id = ?
	`, id).Scan(&s.ID, &s.Name, &state, &s.CreatedAt, &s.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	s.State = json.RawMessage(state)
	return &s, nil
}

// ListSessions returns session metadata ordered by recency, without the
// full editor states.
func (db *DB) ListSessions() ([]models.SessionSummary, error) {
	rows, err := db.Query(`
		SELECT id, name, editor_state, updated_at
		FROM sessions
		ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.SessionSummary
	for rows.Next() {
		var s models.SessionSummary
		var state string
		if err := rows.Scan(&s.ID, &s.Name, &state, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		s.FirstLine = firstLine(state)
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

// firstLine pulls the first line of the first non-empty text cell out of
// a stored editor state, for session listings.
func firstLine(state string) string {
	var parsed struct {
		Cells []models.Cell `json:"cells"`
	}
	if err := json.Unmarshal([]byte(state), &parsed); err != nil {
		return ""
	}
	for _, cell := range parsed.Cells {
		if !cell.IsText() || cell.Content == "" {
			continue
		}
		for i, r := range cell.Content {
			if r == '\n' {
				return cell.Content[:i]
			}
		}
		return cell.Content
	}
	return ""
}

// DeleteSession removes a session.
func (db *DB) DeleteSession(id string) error {
	if _, err := db.Exec(`DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// SessionsUpdatedSince returns IDs of sessions mutated at or after t.
func (db *DB) SessionsUpdatedSince(t time.Time) ([]string, error) {
	rows, err := db.Query(`SELECT id FROM sessions WHERE updated_at >= ?`, t.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query recent sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetPreferences returns the stored preferences, or zero-value
// preferences when none have been saved yet.
func (db *DB) GetPreferences() (*models.Preferences, error) {
	var p models.Preferences
	var voiceConfigs, metaPrompt, stateConfig, selectedState sql.NullString
	err := db.QueryRow(`
		SELECT voice_configs, meta_prompt, state_config, selected_state, updated_at
		FROM preferences WHERE id = 1
	`).Scan(&voiceConfigs, &metaPrompt, &stateConfig, &selectedState, &p.UpdatedAt)

	if err == sql.ErrNoRows {
		return &models.Preferences{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query preferences: %w", err)
	}

	if voiceConfigs.Valid && voiceConfigs.String != "" {
		if err := json.Unmarshal([]byte(voiceConfigs.String), &p.VoiceConfigs); err != nil {
			return nil, fmt.Errorf("failed to parse voice configs: %w", err)
		}
	}
	if metaPrompt.Valid {
		p.MetaPrompt = metaPrompt.String
	}
	if stateConfig.Valid && stateConfig.String != "" {
		p.StateConfig = json.RawMessage(stateConfig.String)
	}
	if selectedState.Valid {
		p.SelectedState = selectedState.String
	}

	return &p, nil
}

// SavePreferences upserts the singleton preferences row.
func (db *DB) SavePreferences(p *models.Preferences) error {
	var voiceConfigs string
	if p.VoiceConfigs != nil {
		data, err := json.Marshal(p.VoiceConfigs)
		if err != nil {
			return fmt.Errorf("failed to marshal voice configs: %w", err)
		}
		voiceConfigs = string(data)
	}

	_, err := db.Exec(`
		INSERT INTO preferences (id, voice_configs, meta_prompt, state_config, selected_state, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			voice_configs = excluded.voice_configs,
			meta_prompt = excluded.meta_prompt,
			state_config = excluded.state_config,
			selected_state = excluded.selected_state,
			updated_at = excluded.updated_at
	`, voiceConfigs, p.MetaPrompt, string(p.StateConfig), p.SelectedState, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}

// SaveReport stores an analysis report.
func (db *DB) SaveReport(reportType string, data json.RawMessage, allNotes string) (int64, error) {
	res, err := db.Exec(`
		INSERT INTO analysis_reports (report_type, report_data, all_notes, created_at)
		VALUES (?, ?, ?, ?)
	`, reportType, string(data), allNotes, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to save report: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get report id: %w", err)
	}
	return id, nil
}

// GetReports returns the most recent reports, newest first.
func (db *DB) GetReports(limit int) ([]models.Report, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.Query(`
		SELECT id, report_type, report_data, all_notes, created_at
		FROM analysis_reports
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []models.Report
	for rows.Next() {
		var r models.Report
		var data string
		var allNotes sql.NullString
		if err := rows.Scan(&r.ID, &r.Type, &data, &allNotes, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		r.Data = json.RawMessage(data)
		if allNotes.Valid {
			r.AllNotes = allNotes.String
		}
		reports = append(reports, r)
	}

	return reports, rows.Err()
}
