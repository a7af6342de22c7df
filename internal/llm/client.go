// Package llm talks to the text-generation backend. The backend is opaque:
// one request carries the whole conversation context, the response body is a
// plain text stream chunked arbitrarily by the transport.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Message is the wire form of one conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateRequest is the payload sent for one turn. Messages is the full
// ordered prefix including the system prompt; the backend is stateless per
// request.
type GenerateRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	UserID   string    `json:"userId"`
	Stream   bool      `json:"stream"`
}

// Provider is the interface the gateway generates text through.
type Provider interface {
	GenerateStream(ctx context.Context, req *GenerateRequest, ch chan<- string) error
}

type client struct {
	http   *http.Client
	url    string
	apiKey string
	model  string
}

// NewClient builds a streaming client for the chat completion endpoint at url.
func NewClient(url, apiKey, model string) Provider {
	return &client{
		http:   &http.Client{},
		url:    url,
		apiKey: apiKey,
		model:  model,
	}
}

// GenerateStream issues the request and forwards body chunks to ch in arrival
// order. ch is closed when the stream ends, whether or not an error occurred.
// No client-side timeout is imposed; the request ceiling is the backend's.
func (c *client) GenerateStream(ctx context.Context, req *GenerateRequest, ch chan<- string) error {
	defer close(ch)

	req.Stream = true
	if req.Model == "" {
		req.Model = c.model
	}
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("could not marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/v1/chat", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/plain")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("api returned non-200 status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	buf := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			select {
			case ch <- string(buf[:n]):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("stream read failed: %w", err)
		}
	}
}
