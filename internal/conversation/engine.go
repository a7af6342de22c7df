package conversation

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"lumen-chat/backend/internal/ident"
	"lumen-chat/backend/internal/model"
)

// FailureNotice is appended as an assistant message whenever a turn fails.
// The failed turn is not retried automatically.
const FailureNotice = "Sorry, I encountered an error. Please try again."

// Responder is the backend chat endpoint the engine talks to. It receives the
// full ordered message prefix of the conversation and must send the reply as
// ordered text chunks on out, closing out when the stream ends. Chunk framing
// carries no meaning beyond concatenation.
type Responder interface {
	StreamTurn(ctx context.Context, userID string, prefix []model.Message, out chan<- string) error
}

// Engine executes one conversational turn at a time and materializes the
// streamed reply incrementally into the store.
//
// Two flags are observable by collaborators: pending (a request is in flight
// but no reply has started) and the id of the message currently streaming in.
// The engine does not serialize callers itself; the service layer refuses new
// turns while Busy reports true.
type Engine struct {
	store     *Store
	responder Responder
	userID    string

	// typing is the fixed inter-character delay of the replay phase. Zero
	// disables the delay and applies the buffered reply in one revision.
	typing time.Duration

	mu          sync.Mutex
	pending     bool
	streamingID string
}

func NewEngine(store *Store, responder Responder, userID string, typing time.Duration) *Engine {
	return &Engine{store: store, responder: responder, userID: userID, typing: typing}
}

// Pending reports whether a turn has been issued but no reply started yet.
func (e *Engine) Pending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending
}

// StreamingMessageID returns the id of the assistant message currently being
// filled in, if any.
func (e *Engine) StreamingMessageID() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.streamingID, e.streamingID != ""
}

// Busy reports whether a turn is in flight in either state.
func (e *Engine) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending || e.streamingID != ""
}

// ExecuteTurn runs a single turn: it sends the full prefix to the responder,
// appends an empty assistant message once the reply starts, buffers the whole
// reply, then replays it into the store character by character. Each content
// revision is also emitted on emit when emit is non-nil. Failures append the
// fixed failure notice instead of a reply.
//
// ExecuteTurn does not close emit; the caller owns the channel.
func (e *Engine) ExecuteTurn(ctx context.Context, chatID string, prefix []model.Message, emit chan<- model.StreamChunk) {
	e.setPending(true)

	chunks := make(chan string)
	errc := make(chan error, 1)
	go func() {
		errc <- e.responder.StreamTurn(ctx, e.userID, prefix, chunks)
	}()

	var buf strings.Builder
	assistantID := ""
	for chunk := range chunks {
		if assistantID == "" {
			id, err := e.appendAssistantMessage(ctx, chatID)
			if err != nil {
				// Drain the rest of the stream so the responder can finish.
				for range chunks {
				}
				<-errc
				e.failTurn(ctx, chatID, emit, err)
				return
			}
			assistantID = id
		}
		buf.WriteString(chunk)
	}
	if err := <-errc; err != nil {
		e.failTurn(ctx, chatID, emit, err)
		return
	}

	// A successful stream with an empty body still produces an (empty)
	// assistant message so the turn stays visible in the log.
	if assistantID == "" {
		id, err := e.appendAssistantMessage(ctx, chatID)
		if err != nil {
			e.failTurn(ctx, chatID, emit, err)
			return
		}
		assistantID = id
	}

	e.replay(ctx, chatID, assistantID, buf.String(), emit)

	e.clearStreaming()
	send(ctx, emit, model.StreamChunk{ChatID: chatID, MessageID: assistantID, Done: true})
}

// replay writes the buffered reply into the store one character at a time
// with a fixed delay, preserving left-to-right order. This is a presentation
// choice; with a zero delay the content lands in a single revision.
func (e *Engine) replay(ctx context.Context, chatID, messageID, full string, emit chan<- model.StreamChunk) {
	if e.typing <= 0 {
		if err := e.store.UpdateMessageContent(ctx, chatID, messageID, full); err != nil {
			slog.Warn("Failed to update streaming message content", "chat_id", chatID, "error", err)
		}
		send(ctx, emit, model.StreamChunk{ChatID: chatID, MessageID: messageID, Content: full})
		return
	}

	runes := []rune(full)
	for i := range runes {
		displayed := string(runes[:i+1])
		if err := e.store.UpdateMessageContent(ctx, chatID, messageID, displayed); err != nil {
			slog.Warn("Failed to update streaming message content", "chat_id", chatID, "error", err)
		}
		if !send(ctx, emit, model.StreamChunk{ChatID: chatID, MessageID: messageID, Content: string(runes[i])}) {
			e.finalizeReplay(ctx, chatID, messageID, full)
			return
		}

		select {
		case <-ctx.Done():
			e.finalizeReplay(ctx, chatID, messageID, full)
			return
		case <-time.After(e.typing):
		}
	}
}

// finalizeReplay lands the rest of an already-received reply in one write
// after the consumer has gone away. The store write must outlive the canceled
// request context.
func (e *Engine) finalizeReplay(ctx context.Context, chatID, messageID, full string) {
	if err := e.store.UpdateMessageContent(context.WithoutCancel(ctx), chatID, messageID, full); err != nil {
		slog.Warn("Failed to finalize streaming message content", "chat_id", chatID, "error", err)
	}
}

// appendAssistantMessage creates the empty assistant placeholder and flips the
// engine from pending to streaming.
func (e *Engine) appendAssistantMessage(ctx context.Context, chatID string) (string, error) {
	msg := model.Message{
		ID:        ident.New(),
		Role:      model.RoleAssistant,
		Content:   "",
		Timestamp: time.Now(),
	}
	if err := e.store.AppendMessage(ctx, chatID, msg); err != nil {
		return "", err
	}
	e.mu.Lock()
	e.pending = false
	e.streamingID = msg.ID
	e.mu.Unlock()
	return msg.ID, nil
}

// failTurn converts any turn failure into a visible chat-log entry and clears
// both engine flags.
func (e *Engine) failTurn(ctx context.Context, chatID string, emit chan<- model.StreamChunk, cause error) {
	slog.Warn("Turn failed", "chat_id", chatID, "error", cause)

	msg := model.Message{
		ID:        ident.New(),
		Role:      model.RoleAssistant,
		Content:   FailureNotice,
		Timestamp: time.Now(),
	}
	if err := e.store.AppendMessage(ctx, chatID, msg); err != nil {
		slog.Error("Failed to record turn failure", "chat_id", chatID, "error", err)
	}

	e.mu.Lock()
	e.pending = false
	e.streamingID = ""
	e.mu.Unlock()

	send(ctx, emit, model.StreamChunk{ChatID: chatID, MessageID: msg.ID, Content: FailureNotice, Error: cause.Error(), Done: true})
}

func (e *Engine) setPending(v bool) {
	e.mu.Lock()
	e.pending = v
	e.mu.Unlock()
}

func (e *Engine) clearStreaming() {
	e.mu.Lock()
	e.streamingID = ""
	e.mu.Unlock()
}

// send delivers chunk on emit, giving up when the turn's context is canceled
// so an abandoned consumer can never block the engine. It reports whether the
// consumer is still listening; a nil emit counts as listening.
func send(ctx context.Context, emit chan<- model.StreamChunk, chunk model.StreamChunk) bool {
	if emit == nil {
		return true
	}
	select {
	case emit <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}
