// Package engine implements the annotation engine: an ordered-cell document
// model whose text earns "energy" as it grows, spent admitting voice
// comments computed by an external analysis service. Comments can never
// appear faster than the writing pays for them.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"inkmemory/internal/models"
)

// DefaultEnergyThreshold is the energy cost of admitting one comment.
const DefaultEnergyThreshold = 40

// AnalysisClient is the boundary to the external analysis service. The
// engine only ever has one request outstanding at a time.
type AnalysisClient interface {
	Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error)
	Chat(ctx context.Context, req models.ChatRequest) (string, error)
}

// ContextFunc supplies the prompt configuration (persona roster, meta and
// state prompts) captured at request time.
type ContextFunc func() models.PromptContext

// Subscriber receives the EditorState synchronously after every mutation.
// The state is handed out by reference and is only valid for that tick:
// the next mutation may change it in place.
type Subscriber func(state *models.EditorState)

// Config configures an Engine.
type Config struct {
	SessionID       string
	EnergyThreshold int
	Client          AnalysisClient
	Context         ContextFunc
	Logger          *slog.Logger
	// RequestTimeout bounds a single analysis call. Zero means no
	// engine-imposed deadline (the client's transport timeout governs).
	RequestTimeout time.Duration
}

// Engine owns one EditorState. All methods serialize on an internal mutex;
// only the outbound analysis call runs outside it.
type Engine struct {
	mu     sync.Mutex
	state  *models.EditorState
	logger *slog.Logger

	threshold  int
	usedEnergy int
	waitlist   []string // commentor IDs, admitted newest-first

	client         AnalysisClient
	contextFn      ContextFunc
	requestTimeout time.Duration

	inFlight   bool
	sentCache  map[string]string // completed-sentence text -> config hash
	subscriber Subscriber
}

// New creates an engine with a single empty text cell.
func New(cfg Config) *Engine {
	if cfg.EnergyThreshold <= 0 {
		cfg.EnergyThreshold = DefaultEnergyThreshold
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Context == nil {
		cfg.Context = func() models.PromptContext {
			return models.PromptContext{Personas: models.DefaultPersonas()}
		}
	}
	if cfg.SessionID == "" {
		cfg.SessionID = uuid.New().String()
	}
	return &Engine{
		state: &models.EditorState{
			SessionID:         cfg.SessionID,
			Cells:             []models.Cell{newTextCell("")},
			OverlappedPhrases: []string{},
			NotFoundPhrases:   []string{},
		},
		logger:         cfg.Logger.With("session", cfg.SessionID),
		threshold:      cfg.EnergyThreshold,
		client:         cfg.Client,
		contextFn:      cfg.Context,
		requestTimeout: cfg.RequestTimeout,
		sentCache:      make(map[string]string),
	}
}

// Subscribe registers the state observer, replacing any previous one.
func (e *Engine) Subscribe(fn Subscriber) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subscriber = fn
}

// GetState returns the live state. Callers must treat it as a read-only
// snapshot for the current tick.
func (e *Engine) GetState() *models.EditorState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Serialize renders the state as JSON. Round-trips losslessly through
// LoadState.
func (e *Engine) Serialize() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return json.Marshal(e.state)
}

// LoadState replaces the state wholesale with a previously serialized one.
// usedEnergy is recomputed from the applied-commentor count, and fields
// missing from older persisted shapes are back-filled.
func (e *Engine) LoadState(serialized []byte) error {
	var state models.EditorState
	if err := json.Unmarshal(serialized, &state); err != nil {
		return fmt.Errorf("failed to parse editor state: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if len(state.Cells) == 0 {
		state.Cells = []models.Cell{newTextCell("")}
	} else {
		state.Cells = mergeCells(state.Cells)
	}
	if state.OverlappedPhrases == nil {
		state.OverlappedPhrases = []string{}
	}
	if state.NotFoundPhrases == nil {
		state.NotFoundPhrases = []string{}
	}

	e.state = &state
	e.waitlist = nil
	e.sentCache = make(map[string]string)
	e.usedEnergy = len(state.AppliedCommentors()) * e.threshold
	currentEnergy.WithLabelValues(e.state.SessionID).Set(float64(e.state.Energy()))

	e.logger.Info("state loaded",
		"cells", len(state.Cells),
		"commentors", len(state.Commentors),
		"usedEnergy", e.usedEnergy)

	e.notifyLocked()
	return nil
}

// UpdateTextCell replaces a text cell's content.
func (e *Engine) UpdateTextCell(cellID, content string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	i, err := e.cellIndex(cellID)
	if err != nil {
		return err
	}
	if !e.state.Cells[i].IsText() {
		return fmt.Errorf("cell %s is not a text cell", cellID)
	}
	e.state.Cells[i].Content = content
	e.afterMutationLocked()
	return nil
}

// InsertWidgetAtCursor inserts a widget at the cursor, consuming a
// preceding trigger character (and its line break when the trigger is
// alone on its line).
func (e *Engine) InsertWidgetAtCursor(cellID string, cursor int, widgetType string, data json.RawMessage) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.insertWidgetAtCursorLocked(cellID, cursor, widgetType, data); err != nil {
		return err
	}
	e.afterMutationLocked()
	return nil
}

// InsertWidgetAfterLine inserts a widget after the line containing offset.
func (e *Engine) InsertWidgetAfterLine(cellID string, offset int, widgetType string, data json.RawMessage) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.insertWidgetAfterLineLocked(cellID, offset, widgetType, data); err != nil {
		return err
	}
	e.afterMutationLocked()
	return nil
}

// AddWidgetCell appends a widget cell at the end of the document.
func (e *Engine) AddWidgetCell(widgetType string, data json.RawMessage) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	cell := newWidgetCell(widgetType, data)
	e.state.Cells = mergeCells(append(e.state.Cells, cell))
	e.afterMutationLocked()
	return cell.ID
}

// UpdateWidgetData replaces a widget cell's opaque payload.
func (e *Engine) UpdateWidgetData(cellID string, data json.RawMessage) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	i, err := e.cellIndex(cellID)
	if err != nil {
		return err
	}
	if e.state.Cells[i].IsText() {
		return fmt.Errorf("cell %s is not a widget cell", cellID)
	}
	e.state.Cells[i].Data = data
	e.afterMutationLocked()
	return nil
}

// DeleteCell removes a cell. The merge pass fuses text cells the removal
// made adjacent; an emptied document reseeds one empty text cell.
func (e *Engine) DeleteCell(cellID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.deleteCellLocked(cellID); err != nil {
		return err
	}
	e.afterMutationLocked()
	return nil
}

// GetComment returns a commentor by ID.
func (e *Engine) GetComment(commentID string) (*models.Commentor, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c := e.commentorByID(commentID)
	if c == nil {
		return nil, fmt.Errorf("comment %s not found", commentID)
	}
	return c, nil
}

// AddCommentChatMessage appends a turn to a commentor's conversation.
func (e *Engine) AddCommentChatMessage(commentID, role, content string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	c := e.commentorByID(commentID)
	if c == nil {
		return fmt.Errorf("comment %s not found", commentID)
	}
	c.ChatHistory = append(c.ChatHistory, models.ChatMessage{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UnixMilli(),
	})
	e.notifyLocked()
	return nil
}

// SetCommentFeedback marks a commentor with user feedback.
func (e *Engine) SetCommentFeedback(commentID, feedback string) error {
	if feedback != models.FeedbackStar && feedback != models.FeedbackKill {
		return fmt.Errorf("invalid feedback %q", feedback)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	c := e.commentorByID(commentID)
	if c == nil {
		return fmt.Errorf("comment %s not found", commentID)
	}
	c.Feedback = feedback
	e.notifyLocked()
	return nil
}

// Chat runs one conversation turn with the persona behind a comment. The
// user message and the reply are appended to the commentor's history.
func (e *Engine) Chat(ctx context.Context, commentID, userMessage string) (string, error) {
	e.mu.Lock()
	c := e.commentorByID(commentID)
	if c == nil {
		e.mu.Unlock()
		return "", fmt.Errorf("comment %s not found", commentID)
	}

	promptCtx := e.contextFn()
	persona, ok := models.PersonaByID(promptCtx.Personas, c.VoiceID)
	if !ok {
		persona = models.Persona{ID: c.VoiceID, Name: c.Voice, Icon: c.Icon, Color: c.Color}
	}
	req := models.ChatRequest{
		Persona:      persona,
		History:      append([]models.ChatMessage(nil), c.ChatHistory...),
		UserMessage:  userMessage,
		DocumentText: e.state.Text(),
		MetaPrompt:   promptCtx.MetaPrompt,
		StatePrompt:  promptCtx.StatePrompt,
	}
	e.mu.Unlock()

	reply, err := e.client.Chat(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat with %s failed: %w", persona.Name, err)
	}

	if err := e.AddCommentChatMessage(commentID, "user", userMessage); err != nil {
		return "", err
	}
	if err := e.AddCommentChatMessage(commentID, "assistant", reply); err != nil {
		return "", err
	}
	return reply, nil
}

// afterMutationLocked is the post-mutation hook: record the weight entry,
// drain whatever the new energy admits, notify the observer, and maybe
// trigger the next analysis request. Runs synchronously, no settle delays.
func (e *Engine) afterMutationLocked() {
	text := e.state.Text()
	e.recordMutation(text)
	currentEnergy.WithLabelValues(e.state.SessionID).Set(float64(e.state.Energy()))

	res := e.drainLocked(text, e.state.Energy())
	if res.skippedAny {
		e.invalidateSentCacheLocked()
	}
	e.notifyLocked()
	e.maybeTriggerLocked(text)
}

func (e *Engine) notifyLocked() {
	if e.subscriber != nil {
		e.subscriber(e.state)
	}
}

func (e *Engine) invalidateSentCacheLocked() {
	if len(e.sentCache) > 0 {
		e.sentCache = make(map[string]string)
	}
}

// configHash digests what the analysis service has already been told. It
// changes whenever the applied set changes, which is enough to distinguish
// "same question, same context" from a retry worth making.
func (e *Engine) configHashLocked() string {
	return fmt.Sprintf("applied:%d", len(e.state.AppliedCommentors()))
}

// maybeTriggerLocked issues at most one analysis request for the current
// completed-sentence prefix. Deduplicated by (completed text, config hash);
// a request already in flight defers everything until it resolves.
func (e *Engine) maybeTriggerLocked(text string) {
	if e.client == nil || e.inFlight {
		return
	}
	completed := CompletedSentences(text)
	if completed == "" {
		return
	}
	hash := e.configHashLocked()
	if e.sentCache[completed] == hash {
		return
	}
	e.sentCache[completed] = hash
	e.inFlight = true

	promptCtx := e.contextFn()
	var applied []models.AppliedComment
	for _, c := range e.state.AppliedCommentors() {
		applied = append(applied, models.AppliedComment{
			Phrase:  c.Phrase,
			Voice:   c.Voice,
			Comment: c.Comment,
		})
	}
	req := models.AnalysisRequest{
		Text:              completed,
		SessionID:         e.state.SessionID,
		Personas:          promptCtx.EnabledPersonas(),
		Applied:           applied,
		MetaPrompt:        promptCtx.MetaPrompt,
		StatePrompt:       promptCtx.StatePrompt,
		OverlappedPhrases: append([]string(nil), e.state.OverlappedPhrases...),
		NotFoundPhrases:   append([]string(nil), e.state.NotFoundPhrases...),
	}
	// The snapshot is the document text at request time. Staleness at
	// admission is judged against this, not against the response moment.
	snapshot := text

	analysisRequests.Inc()
	e.logger.Debug("analysis request", "completed", len(completed), "hash", hash)

	go e.runAnalysis(req, snapshot)
}

// runAnalysis performs the only suspending operation the engine has. On
// completion, success or failure, it clears inFlight, drains against the
// then-current text, and re-triggers when the drain changed anything.
func (e *Engine) runAnalysis(req models.AnalysisRequest, snapshot string) {
	ctx := context.Background()
	if e.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.requestTimeout)
		defer cancel()
	}

	result, err := e.client.Analyze(ctx, req)

	e.mu.Lock()
	defer e.mu.Unlock()

	e.inFlight = false

	if err != nil {
		// Transport failures produce no annotation and surface no error:
		// the next edit drives the retry.
		analysisFailures.Inc()
		e.logger.Warn("analysis request failed", "error", err)
	} else if result != nil && result.Comment != nil {
		cand := result.Comment
		e.state.Commentors = append(e.state.Commentors, models.Commentor{
			ID:           uuid.New().String(),
			Phrase:       cand.Phrase,
			VoiceID:      cand.VoiceID,
			Voice:        cand.Voice,
			Comment:      cand.Comment,
			Icon:         cand.Icon,
			Color:        cand.Color,
			ComputedAt:   time.Now().UnixMilli(),
			TextSnapshot: snapshot,
		})
		c := &e.state.Commentors[len(e.state.Commentors)-1]
		e.waitlist = append(e.waitlist, c.ID)
		e.logger.Info("comment waitlisted", "phrase", c.Phrase, "voice", c.Voice)
	}

	// Drain against the current text, which may have advanced past what
	// was requested. This is the feedback loop that keeps request/drain
	// cycles self-driving.
	text := e.state.Text()
	res := e.drainLocked(text, e.state.Energy())
	if res.skippedAny {
		e.invalidateSentCacheLocked()
	}
	e.notifyLocked()
	if res.appliedAny || res.skippedAny {
		e.maybeTriggerLocked(text)
	}
}
