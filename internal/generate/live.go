package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/shelftalk/shelftalk/internal/models"
)

// generateRequest is the JSON payload sent to the generation endpoint.
type generateRequest struct {
	SessionID string `json:"sessionId"`
	ChatInput string `json:"chatInput"`
}

// LiveResponder issues a single call per invocation to an external
// generation endpoint. Failures become error-status replies; a connection
// failure falls back to the local catalog-backed generator when a catalog
// is configured.
type LiveResponder struct {
	url     string
	client  *http.Client
	catalog Catalog // optional, enables the offline fallback
	logger  zerolog.Logger
}

// NewLiveResponder creates a live-mode responder with the given hard
// timeout for the external call.
func NewLiveResponder(url string, timeout time.Duration, catalog Catalog, logger zerolog.Logger) *LiveResponder {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &LiveResponder{
		url:     url,
		client:  &http.Client{Timeout: timeout},
		catalog: catalog,
		logger:  logger,
	}
}

// Mode implements Responder.
func (l *LiveResponder) Mode() string { return "live" }

// Generate implements Responder.
func (l *LiveResponder) Generate(ctx context.Context, sessionID, input string) (Reply, error) {
	payload, err := json.Marshal(generateRequest{SessionID: sessionID, ChatInput: input})
	if err != nil {
		return Reply{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.url, bytes.NewReader(payload))
	if err != nil {
		return Reply{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			l.logger.Error().Err(err).Str("session_id", sessionID).Msg("generation request timed out")
			return Reply{
				Text:   "The AI service is taking too long to respond. Please try again.",
				Status: models.StatusError,
			}, nil
		}

		l.logger.Error().Err(err).Str("session_id", sessionID).Msg("cannot reach generation service")
		if l.catalog != nil {
			return localFallback(ctx, input, l.catalog), nil
		}
		return Reply{
			Text:   "Cannot connect to the AI service. Please try again later.",
			Status: models.StatusError,
		}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		l.logger.Error().
			Int("status", resp.StatusCode).
			Str("body", string(body)).
			Msg("generation service returned non-success status")
		return Reply{
			Text:   fmt.Sprintf("Error: The AI service returned status %d. Please try again.", resp.StatusCode),
			Status: models.StatusError,
		}, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Reply{
			Text:   "The AI service response could not be read. Please try again.",
			Status: models.StatusError,
		}, nil
	}

	text := extractReplyText(body)
	if text == "" {
		return Reply{
			Text:   "I received an empty response. Please try again.",
			Status: models.StatusError,
		}, nil
	}

	return Reply{
		Text:    text,
		Status:  models.StatusComplete,
		Actions: DetectActions(text),
	}, nil
}

// extractReplyText pulls the reply out of the service's response envelope,
// tolerating {output: str}, {output: {output: str}} and a few alternate
// keys; anything else is returned stringified.
func extractReplyText(body []byte) string {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		// Not an object; a bare JSON string is still a valid reply.
		var s string
		if err := json.Unmarshal(body, &s); err == nil {
			return s
		}
		return string(bytes.TrimSpace(body))
	}

	if raw, ok := envelope["output"]; ok {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
		var nested map[string]json.RawMessage
		if err := json.Unmarshal(raw, &nested); err == nil {
			if inner, ok := nested["output"]; ok {
				if err := json.Unmarshal(inner, &s); err == nil {
					return s
				}
			}
		}
	}

	for _, key := range []string{"response", "message", "text"} {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
	}

	return string(bytes.TrimSpace(body))
}

// isTimeout reports whether the call exceeded its deadline.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
