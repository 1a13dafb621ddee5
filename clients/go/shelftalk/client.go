// Package shelftalk provides a client for the ShelfTalk chat API.
package shelftalk

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a ShelfTalk API client.
type Client struct {
	BaseURL    string
	SessionID  string
	HTTPClient *http.Client
}

// NewClient creates a new ShelfTalk client bound to one session.
func NewClient(baseURL, sessionID string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		SessionID:  sessionID,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// doRequest performs an HTTP request.
func (c *Client) doRequest(method, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequest(method, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-ID", c.SessionID)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		json.Unmarshal(respBody, &errResp)
		return nil, fmt.Errorf("shelftalk error %d: %s", resp.StatusCode, errResp.Error)
	}

	return respBody, nil
}

// Message represents a chat message.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Status    string    `json:"status,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Terminal reports whether the message has reached a final state.
func (m Message) Terminal() bool {
	return m.Status == "complete" || m.Status == "error"
}

// SendResponse acknowledges an accepted turn.
type SendResponse struct {
	Accepted  bool   `json:"accepted"`
	MessageID string `json:"message_id"`
	SessionID string `json:"session_id"`
}

// Send submits a user message. The assistant reply arrives on the
// stream, not in this response.
func (c *Client) Send(message string) (*SendResponse, error) {
	body, _ := json.Marshal(map[string]string{
		"session_id": c.SessionID,
		"message":    message,
	})

	respBody, err := c.doRequest("POST", "/api/chat/send", body)
	if err != nil {
		return nil, err
	}

	var resp SendResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HistoryResponse is the response from fetching chat history.
type HistoryResponse struct {
	SessionID string    `json:"session_id"`
	Messages  []Message `json:"messages"`
	Total     int       `json:"total"`
	Mode      string    `json:"mode"`
}

// History retrieves the most recent messages for the session.
func (c *Client) History(limit int) (*HistoryResponse, error) {
	path := "/api/chat/history/" + c.SessionID
	if limit > 0 {
		path += fmt.Sprintf("?limit=%d", limit)
	}

	respBody, err := c.doRequest("GET", path, nil)
	if err != nil {
		return nil, err
	}

	var resp HistoryResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Clear empties the session's chat history.
func (c *Client) Clear() error {
	_, err := c.doRequest("DELETE", "/api/chat/clear/"+c.SessionID, nil)
	return err
}

// DemoStatusResponse describes the server's response policy.
type DemoStatusResponse struct {
	Mode               string   `json:"mode"`
	AvailableQuestions []string `json:"available_questions,omitempty"`
	Message            string   `json:"message"`
}

// DemoStatus reports the deployment mode and supported demo questions.
func (c *Client) DemoStatus() (*DemoStatusResponse, error) {
	respBody, err := c.doRequest("GET", "/api/chat/demo-status", nil)
	if err != nil {
		return nil, err
	}

	var resp DemoStatusResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HealthResponse is the response from the health endpoint.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Checks    map[string]interface{} `json:"checks"`
	Timestamp string                 `json:"timestamp"`
}

// Health checks server health.
func (c *Client) Health() (*HealthResponse, error) {
	respBody, err := c.doRequest("GET", "/health", nil)
	if err != nil {
		return nil, err
	}

	var resp HealthResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stream opens the session's SSE feed and invokes fn for each message
// frame until the context is cancelled or the connection drops. The
// synthetic "connected" frame is consumed internally.
func (c *Client) Stream(ctx context.Context, fn func(Message)) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.BaseURL+"/api/chat/stream/"+c.SessionID, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	// The default client timeout would kill a long-lived stream.
	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("stream error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimPrefix(line, "data: ")

		// Skip non-message frames (the connected handshake).
		var probe struct {
			Type string `json:"type"`
			ID   string `json:"id"`
		}
		if err := json.Unmarshal([]byte(payload), &probe); err != nil || probe.ID == "" {
			continue
		}

		var msg Message
		if err := json.Unmarshal([]byte(payload), &msg); err != nil {
			continue
		}
		fn(msg)
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// Ask submits a message and waits for the assistant's terminal reply,
// or until the context expires.
func (c *Client) Ask(ctx context.Context, message string) (*Message, error) {
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	replies := make(chan Message, 4)
	errs := make(chan error, 1)
	go func() {
		errs <- c.Stream(streamCtx, func(m Message) {
			if m.Role == "assistant" && m.Terminal() {
				select {
				case replies <- m:
				default:
				}
			}
		})
	}()

	if _, err := c.Send(message); err != nil {
		return nil, err
	}

	select {
	case msg := <-replies:
		return &msg, nil
	case err := <-errs:
		if err == nil {
			err = fmt.Errorf("stream closed before reply")
		}
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
