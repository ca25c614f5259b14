package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"inkmemory/internal/models"
)

func TestAnalysisService_Analyze(t *testing.T) {
	var gotPath, gotAuth string
	var gotReq models.AnalysisRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		json.NewEncoder(w).Encode(models.AnalysisResult{
			Comment: &models.CommentCandidate{
				Phrase:  "quick brown fox",
				VoiceID: "mirror",
				Voice:   "Mirror",
				Comment: "You have written this before.",
			},
		})
	}))
	defer server.Close()

	svc := NewAnalysisService(server.URL, "secret-key", 5*time.Second, 100)

	result, err := svc.Analyze(context.Background(), models.AnalysisRequest{
		Text:      "The quick brown fox.",
		SessionID: "sess-1",
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if gotPath != "/api/analyze" {
		t.Errorf("Expected /api/analyze, got %s", gotPath)
	}
	if gotAuth != "Bearer secret-key" {
		t.Errorf("Expected bearer auth, got %q", gotAuth)
	}
	if gotReq.Text != "The quick brown fox." {
		t.Errorf("Expected text forwarded, got %q", gotReq.Text)
	}
	if result.Comment == nil || result.Comment.Phrase != "quick brown fox" {
		t.Errorf("Expected comment candidate, got %+v", result.Comment)
	}
}

func TestAnalysisService_AnalyzeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream overloaded", http.StatusBadGateway)
	}))
	defer server.Close()

	svc := NewAnalysisService(server.URL, "", 5*time.Second, 100)

	if _, err := svc.Analyze(context.Background(), models.AnalysisRequest{Text: "hi."}); err == nil {
		t.Fatal("Expected error for non-200 response, got nil")
	}
}

func TestAnalysisService_Chat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("Expected /api/chat, got %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{"response": "Indeed."})
	}))
	defer server.Close()

	svc := NewAnalysisService(server.URL, "", 5*time.Second, 100)

	reply, err := svc.Chat(context.Background(), models.ChatRequest{
		Persona:     models.Persona{ID: "mirror", Name: "Mirror"},
		UserMessage: "What do you mean?",
	})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if reply != "Indeed." {
		t.Errorf("Expected reply 'Indeed.', got %q", reply)
	}
}

func TestAnalysisService_GenerateReportCached(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(map[string]json.RawMessage{
			"report": json.RawMessage(`{"voices":["mirror"]}`),
		})
	}))
	defer server.Close()

	svc := NewAnalysisService(server.URL, "", 5*time.Second, 100)

	first, err := svc.GenerateReport(context.Background(), "echoes", "note one\nnote two")
	if err != nil {
		t.Fatalf("GenerateReport failed: %v", err)
	}
	second, err := svc.GenerateReport(context.Background(), "echoes", "note one\nnote two")
	if err != nil {
		t.Fatalf("Second GenerateReport failed: %v", err)
	}

	if calls != 1 {
		t.Errorf("Expected 1 upstream call, got %d", calls)
	}
	if string(first) != string(second) {
		t.Errorf("Expected cached report to match: %s vs %s", first, second)
	}
}

func TestAnalysisService_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	svc := NewAnalysisService(server.URL, "", 5*time.Second, 100)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := svc.Analyze(ctx, models.AnalysisRequest{Text: "never."}); err == nil {
		t.Fatal("Expected context cancellation error, got nil")
	}
}
