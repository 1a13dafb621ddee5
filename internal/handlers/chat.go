package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shelftalk/shelftalk/internal/generate"
	"github.com/shelftalk/shelftalk/internal/models"
)

// SendMessageRequest represents the submit-turn request.
type SendMessageRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// SendMessageResponse acknowledges an accepted turn. The assistant reply
// arrives through the stream, never synchronously.
type SendMessageResponse struct {
	Accepted  bool   `json:"accepted"`
	MessageID string `json:"message_id"`
	SessionID string `json:"session_id"`
}

// HistoryResponse represents the chat history response.
type HistoryResponse struct {
	SessionID string               `json:"session_id"`
	Messages  []models.ChatMessage `json:"messages"`
	Total     int                  `json:"total"`
	Mode      string               `json:"mode"`
}

// SendMessage handles submitting a user message for an assistant turn.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if !validSessionID(req.SessionID) {
		h.Error(w, http.StatusBadRequest, "invalid session ID format")
		return
	}
	if req.Message == "" {
		h.Error(w, http.StatusBadRequest, "message is required")
		return
	}
	if len(req.Message) > 4096 {
		h.Error(w, http.StatusUnprocessableEntity, "message too long (max 4096 bytes)")
		return
	}

	messageID := h.dispatcher.Submit(r.Context(), req.SessionID, req.Message)

	h.JSON(w, http.StatusAccepted, SendMessageResponse{
		Accepted:  true,
		MessageID: messageID,
		SessionID: req.SessionID,
	})
}

// connectedEvent is the synthetic first frame of every stream.
type connectedEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
}

// Stream handles the long-lived SSE feed for a session. Each frame is a
// serialized message; the connection stays open until the client
// disconnects or the server shuts down.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if !validSessionID(sessionID) {
		h.Error(w, http.StatusBadRequest, "invalid session ID format")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.Error(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	viewerID := uuid.New().String()
	h.logger.Info().
		Str("viewer_id", viewerID).
		Str("session_id", sessionID).
		Msg("viewer connected")

	sub := h.store.Subscribe(sessionID, h.pollInterval)
	defer sub.Close()

	writeEvent(w, connectedEvent{Type: "connected", SessionID: sessionID})
	flusher.Flush()

	ctx := r.Context()
	for {
		for _, msg := range sub.Pending() {
			writeEvent(w, msg)
		}
		flusher.Flush()

		if err := sub.Wait(ctx); err != nil {
			// Client disconnect is a normal shutdown, not an error.
			h.logger.Info().
				Str("viewer_id", viewerID).
				Str("session_id", sessionID).
				Msg("viewer disconnected")
			return
		}
	}
}

// writeEvent writes one SSE data frame.
func writeEvent(w http.ResponseWriter, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}

// History handles fetching the most recent messages for a session.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if !validSessionID(sessionID) {
		h.Error(w, http.StatusBadRequest, "invalid session ID format")
		return
	}

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}
	if limit > 100 {
		limit = 100
	}

	messages, total := h.store.Tail(sessionID, limit)
	if messages == nil {
		messages = []models.ChatMessage{}
	}

	h.JSON(w, http.StatusOK, HistoryResponse{
		SessionID: sessionID,
		Messages:  messages,
		Total:     total,
		Mode:      h.mode(),
	})
}

// Clear empties a session's log. Idempotent on missing sessions.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if !validSessionID(sessionID) {
		h.Error(w, http.StatusBadRequest, "invalid session ID format")
		return
	}

	h.store.Clear(sessionID)

	h.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Chat history cleared",
	})
}

// DemoStatusResponse describes the active response policy.
type DemoStatusResponse struct {
	Mode               string   `json:"mode"`
	AvailableQuestions []string `json:"available_questions,omitempty"`
	Message            string   `json:"message"`
}

// DemoStatus reports the deployment mode and, in demo mode, the
// supported questions.
func (h *Handler) DemoStatus(w http.ResponseWriter, r *http.Request) {
	resp := DemoStatusResponse{Mode: h.mode()}
	if h.demoMode {
		resp.AvailableQuestions = generate.Questions()
		resp.Message = "This is a demo version. Only the listed questions are supported."
	} else {
		resp.Message = "Live generation backend configured."
	}
	h.JSON(w, http.StatusOK, resp)
}
