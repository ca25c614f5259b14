package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"time"

	cache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"inkmemory/internal/models"
)

// AnalysisService talks to the external analysis API. It implements the
// engine's AnalysisClient boundary and also serves one-shot report
// generation for the nightly job.
type AnalysisService struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	limiter     *rate.Limiter
	reportCache *cache.Cache
}

// NewAnalysisService creates the analysis client. rps bounds outbound
// calls per second across all sessions.
func NewAnalysisService(baseURL, apiKey string, timeout time.Duration, rps float64) *AnalysisService {
	if rps <= 0 {
		rps = 2
	}

	transport := &http.Transport{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &AnalysisService{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)+1),
		// Reports are expensive full-corpus calls; cache them for a day.
		reportCache: cache.New(24*time.Hour, time.Hour),
	}
}

// Analyze sends the completed-sentence text to the analysis API and returns
// at most one new comment candidate.
func (s *AnalysisService) Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error) {
	var result models.AnalysisResult
	if err := s.post(ctx, "/api/analyze", req, &result); err != nil {
		return nil, fmt.Errorf("analyze call failed: %w", err)
	}
	return &result, nil
}

// Chat sends one conversation turn with a voice persona.
func (s *AnalysisService) Chat(ctx context.Context, req models.ChatRequest) (string, error) {
	var result struct {
		Response string `json:"response"`
	}
	if err := s.post(ctx, "/api/chat", req, &result); err != nil {
		return "", fmt.Errorf("chat call failed: %w", err)
	}
	return result.Response, nil
}

// GenerateReport produces an aggregate report over all collected notes.
// Repeated calls for the same report type on the same day hit the cache.
func (s *AnalysisService) GenerateReport(ctx context.Context, reportType, allNotes string) (json.RawMessage, error) {
	cacheKey := fmt.Sprintf("%s:%s", reportType, time.Now().UTC().Format("2006-01-02"))
	if cached, found := s.reportCache.Get(cacheKey); found {
		log.Printf("📊 [ANALYSIS] Report cache hit for %s", reportType)
		return cached.(json.RawMessage), nil
	}

	req := struct {
		ReportType string `json:"report_type"`
		AllNotes   string `json:"all_notes"`
	}{ReportType: reportType, AllNotes: allNotes}

	var result struct {
		Report json.RawMessage `json:"report"`
	}
	if err := s.post(ctx, "/api/report", req, &result); err != nil {
		return nil, fmt.Errorf("report call failed: %w", err)
	}

	s.reportCache.Set(cacheKey, result.Report, cache.DefaultExpiration)
	return result.Report, nil
}

func (s *AnalysisService) post(ctx context.Context, path string, payload, out interface{}) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("analysis API returned %d: %s", resp.StatusCode, string(data))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
