package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"inkmemory/internal/database"
	"inkmemory/internal/models"
)

func newTestReportService(t *testing.T, name string, upstream http.HandlerFunc) (*ReportService, *database.DB) {
	t.Helper()
	t.Cleanup(func() { os.Remove(name) })

	db, err := database.New(name)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}

	server := httptest.NewServer(upstream)
	t.Cleanup(server.Close)

	analysis := NewAnalysisService(server.URL, "", 5*time.Second, 100)
	return NewReportService(db, analysis), db
}

func reportUpstream(t *testing.T, gotNotes *string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ReportType string `json:"report_type"`
			AllNotes   string `json:"all_notes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode report request: %v", err)
		}
		*gotNotes = req.AllNotes
		json.NewEncoder(w).Encode(map[string]json.RawMessage{
			"report": json.RawMessage(`{"echoes":["a repeated phrase"]}`),
		})
	}
}

func seedSession(t *testing.T, db *database.DB, id, text string) {
	t.Helper()
	state, err := json.Marshal(models.EditorState{
		SessionID: id,
		Cells:     []models.Cell{{ID: id + "-c", Type: models.CellTypeText, Content: text}},
	})
	if err != nil {
		t.Fatalf("Failed to marshal state: %v", err)
	}
	if err := db.SaveSession(id, "", state); err != nil {
		t.Fatalf("Failed to seed session: %v", err)
	}
}

func TestReportService_Generate(t *testing.T) {
	var gotNotes string
	svc, db := newTestReportService(t, "test_report_gen.db", reportUpstream(t, &gotNotes))

	seedSession(t, db, "s1", "First session text.")
	seedSession(t, db, "s2", "Second session text.")

	report, err := svc.Generate(context.Background(), models.ReportTypeEchoes)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if !strings.Contains(gotNotes, "First session text.") || !strings.Contains(gotNotes, "Second session text.") {
		t.Errorf("Expected both sessions in notes, got %q", gotNotes)
	}
	if report.Type != models.ReportTypeEchoes {
		t.Errorf("Expected echoes report, got %q", report.Type)
	}

	stored, err := svc.List(10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("Expected 1 stored report, got %d", len(stored))
	}
	if string(stored[0].Data) != `{"echoes":["a repeated phrase"]}` {
		t.Errorf("Expected report data persisted, got %s", stored[0].Data)
	}
}

func TestReportService_GenerateUnknownType(t *testing.T) {
	var gotNotes string
	svc, db := newTestReportService(t, "test_report_unknown.db", reportUpstream(t, &gotNotes))
	seedSession(t, db, "s1", "Some text.")

	if _, err := svc.Generate(context.Background(), "horoscope"); err == nil {
		t.Fatal("Expected error for unknown report type, got nil")
	}
}

func TestReportService_GenerateEmptyCorpus(t *testing.T) {
	var gotNotes string
	svc, _ := newTestReportService(t, "test_report_empty.db", reportUpstream(t, &gotNotes))

	if _, err := svc.Generate(context.Background(), models.ReportTypeEchoes); err == nil {
		t.Fatal("Expected error with no session text, got nil")
	}
}

func TestReportService_GenerateDailySkipsQuietDays(t *testing.T) {
	calls := 0
	svc, db := newTestReportService(t, "test_report_daily.db", func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(map[string]json.RawMessage{"report": json.RawMessage(`{}`)})
	})
	seedSession(t, db, "s1", "Written today.")

	// Sessions exist but none after the cutoff: no upstream call.
	if err := svc.GenerateDaily(context.Background(), time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("GenerateDaily failed: %v", err)
	}
	if calls != 0 {
		t.Errorf("Expected no upstream calls for quiet window, got %d", calls)
	}

	if err := svc.GenerateDaily(context.Background(), time.Now().Add(-time.Hour)); err != nil {
		t.Fatalf("GenerateDaily failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 upstream call, got %d", calls)
	}
}
