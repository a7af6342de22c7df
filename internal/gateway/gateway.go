// Package gateway implements the backend side of a chat turn: it enriches
// the conversation with stored memories, streams the reply from the
// text-generation provider and persists the finished exchange back into the
// memory service. The conversation engine consumes it as an opaque Responder.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"lumen-chat/backend/internal/llm"
	"lumen-chat/backend/internal/model"
)

const defaultSystemPrompt = "You are a helpful AI assistant."

// MemoryStore is the slice of the memory service the gateway needs.
type MemoryStore interface {
	Search(ctx context.Context, userID, query string, limit int) ([]model.Memory, error)
	Add(ctx context.Context, userID string, messages []model.Message) error
}

// Gateway wires the provider and the memory service into one streaming turn.
type Gateway struct {
	provider     llm.Provider
	memory       MemoryStore
	systemPrompt string
	memoryLimit  int
}

func New(provider llm.Provider, memory MemoryStore, systemPrompt string, memoryLimit int) *Gateway {
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}
	if memoryLimit <= 0 {
		memoryLimit = 3
	}
	return &Gateway{
		provider:     provider,
		memory:       memory,
		systemPrompt: systemPrompt,
		memoryLimit:  memoryLimit,
	}
}

// StreamTurn sends the full prefix to the provider and forwards reply chunks
// to out in arrival order, closing out at the end of the stream. Memory
// retrieval and storage are best-effort side channels: their failures are
// logged and swallowed, never surfaced to the turn.
func (g *Gateway) StreamTurn(ctx context.Context, userID string, prefix []model.Message, out chan<- string) error {
	defer close(out)

	system := g.buildSystemPrompt(ctx, userID, prefix)

	messages := make([]llm.Message, 0, len(prefix)+1)
	messages = append(messages, llm.Message{Role: "system", Content: system})
	for _, m := range prefix {
		messages = append(messages, llm.Message{Role: string(m.Role), Content: flatten(m)})
	}

	inner := make(chan string)
	errc := make(chan error, 1)
	go func() {
		errc <- g.provider.GenerateStream(ctx, &llm.GenerateRequest{Messages: messages, UserID: userID}, inner)
	}()

	var full strings.Builder
	for chunk := range inner {
		full.WriteString(chunk)
		select {
		case out <- chunk:
		case <-ctx.Done():
			<-errc
			return ctx.Err()
		}
	}
	if err := <-errc; err != nil {
		return err
	}

	// The reply is already delivered; storage runs detached so its outcome
	// cannot affect the turn.
	go g.storeConversation(userID, prefix, full.String())
	return nil
}

func (g *Gateway) buildSystemPrompt(ctx context.Context, userID string, prefix []model.Message) string {
	system := g.systemPrompt
	if g.memory == nil || len(prefix) == 0 {
		return system
	}

	query := flatten(prefix[len(prefix)-1])
	memories, err := g.memory.Search(ctx, userID, query, g.memoryLimit)
	if err != nil {
		slog.Warn("Memory retrieval failed, continuing without context", "user_id", userID, "error", err)
		return system
	}
	if len(memories) == 0 {
		return system
	}

	var b strings.Builder
	b.WriteString(system)
	b.WriteString("\n\nRelevant context from previous conversations:")
	for _, m := range memories {
		b.WriteString("\n- ")
		b.WriteString(m.Content)
	}
	b.WriteString("\n\nUse this context to provide more personalized and coherent responses.")
	return b.String()
}

func (g *Gateway) storeConversation(userID string, prefix []model.Message, reply string) {
	if g.memory == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conversation := append(append([]model.Message{}, prefix...), model.Message{
		Role:    model.RoleAssistant,
		Content: reply,
	})
	if err := g.memory.Add(ctx, userID, conversation); err != nil {
		slog.Warn("Memory storage failed, but response was generated", "user_id", userID, "error", err)
	}
}

// flatten renders a message as plain text for the wire: attachments become
// bracketed notes appended after the text body.
func flatten(m model.Message) string {
	if len(m.Files) == 0 {
		return m.Content
	}
	parts := make([]string, 0, len(m.Files)+1)
	if m.Content != "" {
		parts = append(parts, m.Content)
	}
	for _, f := range m.Files {
		if f.ResourceType == "image" {
			parts = append(parts, fmt.Sprintf("[Attached image: %s]", f.URL))
		} else {
			parts = append(parts, fmt.Sprintf("[Attached file: %s (%s)]", f.OriginalName, f.FileType))
		}
	}
	return strings.Join(parts, "\n")
}
