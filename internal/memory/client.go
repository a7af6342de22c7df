// Package memory is the boundary to the managed conversational-memory
// service. All callers treat it as best-effort: failures here must never
// affect a chat turn that already produced a reply.
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"lumen-chat/backend/internal/model"
)

// Client is a thin HTTP client for the memory API.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		http:    &http.Client{},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// wireMemory is the provider's representation of a stored memory. Field
// names differ between API versions, hence the fallbacks in toMemory.
type wireMemory struct {
	ID        string  `json:"id"`
	Memory    string  `json:"memory"`
	Text      string  `json:"text"`
	Score     float64 `json:"score"`
	CreatedAt string  `json:"created_at"`
}

func toMemory(w wireMemory) model.Memory {
	content := w.Memory
	if content == "" {
		content = w.Text
	}
	return model.Memory{
		ID:        w.ID,
		Content:   content,
		Relevance: w.Score,
		Timestamp: w.CreatedAt,
	}
}

// Search returns up to limit memories relevant to query for the given user.
func (c *Client) Search(ctx context.Context, userID, query string, limit int) ([]model.Memory, error) {
	payload := map[string]any{
		"query":   query,
		"user_id": userID,
		"limit":   limit,
	}
	var wire []wireMemory
	if err := c.do(ctx, http.MethodPost, "/v1/memories/search/", payload, &wire); err != nil {
		return nil, err
	}
	out := make([]model.Memory, 0, len(wire))
	for _, w := range wire {
		out = append(out, toMemory(w))
	}
	return out, nil
}

// Add stores a finished conversation so the service can extract memories
// from it. The result is opaque to us; only the error matters.
func (c *Client) Add(ctx context.Context, userID string, messages []model.Message) error {
	wireMessages := make([]map[string]string, 0, len(messages))
	for _, m := range messages {
		content := m.Content
		if content == "" && len(m.Files) > 0 {
			content = "[File attachment]"
		}
		wireMessages = append(wireMessages, map[string]string{
			"role":    string(m.Role),
			"content": content,
		})
	}
	payload := map[string]any{
		"messages": wireMessages,
		"user_id":  userID,
		"metadata": map[string]any{
			"source":        "lumen-chat",
			"message_count": len(messages),
		},
	}
	return c.do(ctx, http.MethodPost, "/v1/memories/", payload, nil)
}

// List returns every memory held for the user.
func (c *Client) List(ctx context.Context, userID string) ([]model.Memory, error) {
	var wire []wireMemory
	path := fmt.Sprintf("/v1/memories/?user_id=%s", url.QueryEscape(userID))
	if err := c.do(ctx, http.MethodGet, path, nil, &wire); err != nil {
		return nil, err
	}
	out := make([]model.Memory, 0, len(wire))
	for _, w := range wire {
		out = append(out, toMemory(w))
	}
	return out, nil
}

// Delete removes a single memory by id.
func (c *Client) Delete(ctx context.Context, memoryID string) error {
	path := fmt.Sprintf("/v1/memories/%s/", memoryID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("could not marshal request: %w", err)
		}
		body = bytes.NewBuffer(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("memory request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("memory api returned status %d: %s", resp.StatusCode, string(raw))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("could not decode memory response: %w", err)
	}
	return nil
}
