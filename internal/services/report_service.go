package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"inkmemory/internal/database"
	"inkmemory/internal/models"
)

// ReportService builds aggregate reports (echoes, traits, patterns) over
// the full corpus of session texts.
type ReportService struct {
	db       *database.DB
	analysis *AnalysisService
}

// NewReportService creates the report service.
func NewReportService(db *database.DB, analysis *AnalysisService) *ReportService {
	return &ReportService{db: db, analysis: analysis}
}

// Generate builds and persists one report of the given type over every
// stored session.
func (s *ReportService) Generate(ctx context.Context, reportType string) (*models.Report, error) {
	switch reportType {
	case models.ReportTypeEchoes, models.ReportTypeTraits, models.ReportTypePatterns:
	default:
		return nil, fmt.Errorf("unknown report type: %s", reportType)
	}

	allNotes, err := s.collectNotes()
	if err != nil {
		return nil, err
	}
	if allNotes == "" {
		return nil, fmt.Errorf("no session text to report on")
	}

	data, err := s.analysis.GenerateReport(ctx, reportType, allNotes)
	if err != nil {
		return nil, err
	}

	id, err := s.db.SaveReport(reportType, data, allNotes)
	if err != nil {
		return nil, err
	}

	log.Printf("📊 [REPORT] Generated %s report #%d (%d chars of notes)", reportType, id, len(allNotes))
	return &models.Report{
		ID:        id,
		Type:      reportType,
		Data:      data,
		AllNotes:  allNotes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// GenerateDaily builds the nightly echoes report, skipping when no session
// was touched since the cutoff.
func (s *ReportService) GenerateDaily(ctx context.Context, since time.Time) error {
	ids, err := s.db.SessionsUpdatedSince(since)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		log.Println("📊 [REPORT] No recent sessions, skipping daily report")
		return nil
	}

	if _, err := s.Generate(ctx, models.ReportTypeEchoes); err != nil {
		return fmt.Errorf("daily report failed: %w", err)
	}
	return nil
}

// List returns the most recent reports.
func (s *ReportService) List(limit int) ([]models.Report, error) {
	return s.db.GetReports(limit)
}

// collectNotes concatenates the text of every stored session.
func (s *ReportService) collectNotes() (string, error) {
	summaries, err := s.db.ListSessions()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, summary := range summaries {
		sess, err := s.db.GetSession(summary.ID)
		if err != nil {
			continue
		}
		var state models.EditorState
		if err := json.Unmarshal(sess.State, &state); err != nil {
			continue
		}
		text := strings.TrimSpace(state.Text())
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n---\n\n")
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}
