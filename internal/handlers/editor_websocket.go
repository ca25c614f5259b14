package handlers

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"

	"inkmemory/internal/engine"
	"inkmemory/internal/services"
)

// EditorWebSocketHandler streams editor state to clients and accepts
// document mutations over the same connection.
type EditorWebSocketHandler struct {
	sessionService *services.SessionService
}

// NewEditorWebSocketHandler creates a new editor WebSocket handler
func NewEditorWebSocketHandler(sessionService *services.SessionService) *EditorWebSocketHandler {
	return &EditorWebSocketHandler{sessionService: sessionService}
}

// editorWSMessage is one inbound client message.
type editorWSMessage struct {
	Type       string          `json:"type"`
	CellID     string          `json:"cell_id,omitempty"`
	Content    string          `json:"content,omitempty"`
	Cursor     int             `json:"cursor,omitempty"`
	WidgetType string          `json:"widget_type,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	Placement  string          `json:"placement,omitempty"`
}

// HandleConnection handles one editor WebSocket connection
// WS /ws/sessions/:id
func (h *EditorWebSocketHandler) HandleConnection(c *websocket.Conn) {
	sessionID := c.Params("id")

	eng, err := h.sessionService.GetEngine(sessionID)
	if err != nil {
		c.WriteJSON(map[string]string{"type": "error", "message": "Session not found"})
		c.Close()
		return
	}

	log.Printf("✅ [EDITOR-WS] Connected: session=%s", sessionID)

	// Writes come from both the read loop (errors) and the state pump.
	var writeMu sync.Mutex
	writeState := func(state []byte) error {
		payload := make([]byte, 0, len(state)+32)
		payload = append(payload, `{"type":"state","payload":`...)
		payload = append(payload, state...)
		payload = append(payload, '}')
		writeMu.Lock()
		defer writeMu.Unlock()
		return c.WriteMessage(websocket.TextMessage, payload)
	}
	writeJSON := func(v interface{}) {
		writeMu.Lock()
		defer writeMu.Unlock()
		c.WriteJSON(v)
	}

	// Initial snapshot before any mutation arrives.
	if state, err := eng.Serialize(); err == nil {
		if err := writeState(state); err != nil {
			c.Close()
			return
		}
	}

	watcherID, states := h.sessionService.Watch(sessionID)
	defer h.sessionService.Unwatch(sessionID, watcherID)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case state, ok := <-states:
				if !ok {
					return
				}
				if err := writeState(state); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	// Hung connections are detected by the read deadline, reset on every
	// message or pong.
	const readTimeout = 90 * time.Second
	c.SetReadDeadline(time.Now().Add(readTimeout))
	c.SetPongHandler(func(string) error {
		c.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		var msg editorWSMessage
		if err := c.ReadJSON(&msg); err != nil {
			log.Printf("❌ [EDITOR-WS] Disconnected: session=%s err=%v", sessionID, err)
			close(done)
			return
		}
		c.SetReadDeadline(time.Now().Add(readTimeout))

		if err := h.dispatch(eng, &msg, writeJSON); err != nil {
			writeJSON(map[string]string{"type": "error", "message": err.Error()})
		}
	}
}

func (h *EditorWebSocketHandler) dispatch(eng *engine.Engine, msg *editorWSMessage, writeJSON func(interface{})) error {
	switch msg.Type {
	case "update_text":
		return eng.UpdateTextCell(msg.CellID, msg.Content)
	case "insert_widget":
		if msg.Placement == "after_line" {
			return eng.InsertWidgetAfterLine(msg.CellID, msg.Cursor, msg.WidgetType, msg.Data)
		}
		return eng.InsertWidgetAtCursor(msg.CellID, msg.Cursor, msg.WidgetType, msg.Data)
	case "add_widget":
		cellID := eng.AddWidgetCell(msg.WidgetType, msg.Data)
		writeJSON(map[string]string{"type": "widget_added", "cell_id": cellID})
		return nil
	case "update_widget":
		return eng.UpdateWidgetData(msg.CellID, msg.Data)
	case "delete_cell":
		return eng.DeleteCell(msg.CellID)
	case "ping":
		writeJSON(map[string]string{"type": "pong"})
		return nil
	default:
		log.Printf("⚠️ [EDITOR-WS] Unknown message type: %s", msg.Type)
		return nil
	}
}
