package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lumen-chat/backend/internal/ident"
	"lumen-chat/backend/internal/model"
)

// State is the externally observable engine and selection state.
type State struct {
	ActiveChatID       string `json:"active_chat_id,omitempty"`
	Pending            bool   `json:"pending"`
	StreamingMessageID string `json:"streaming_message_id,omitempty"`
}

// SendMessageRequest carries a new outgoing user message. Attachments are not
// part of the request; whatever is staged at send time is attached.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// EditMessageRequest rewrites a previously sent user message. Files replace
// the message's attachment list wholesale.
type EditMessageRequest struct {
	Content string               `json:"content"`
	Files   []model.UploadedFile `json:"files,omitempty"`
}

// Service glues the store, the turn engine and the attachment manager into
// the conversation API the handlers consume.
type Service struct {
	store       *Store
	engine      *Engine
	attachments *AttachmentManager
}

func NewService(store *Store, engine *Engine, attachments *AttachmentManager) *Service {
	return &Service{store: store, engine: engine, attachments: attachments}
}

func (s *Service) ListChats() []*model.Chat               { return s.store.Chats() }
func (s *Service) GetChat(id string) (*model.Chat, error) { return s.store.Chat(id) }

func (s *Service) CreateChat(ctx context.Context) (*model.Chat, error) {
	return s.store.CreateChat(ctx)
}

func (s *Service) SelectChat(ctx context.Context, id string) error {
	return s.store.SelectChat(ctx, id)
}

func (s *Service) RenameChat(ctx context.Context, id, title string) error {
	return s.store.RenameChat(ctx, id, title)
}

func (s *Service) DeleteChat(ctx context.Context, id string) error {
	return s.store.DeleteChat(ctx, id)
}

func (s *Service) ArchiveChat(ctx context.Context, id string) error {
	return s.store.ArchiveChat(ctx, id)
}

// State reports the active chat and the engine's two observable flags.
func (s *Service) State() State {
	streamingID, _ := s.engine.StreamingMessageID()
	return State{
		ActiveChatID:       s.store.ActiveChatID(),
		Pending:            s.engine.Pending(),
		StreamingMessageID: streamingID,
	}
}

func (s *Service) StageAttachment(file model.UploadedFile) { s.attachments.Stage(file) }
func (s *Service) UnstageAttachment(publicID string) bool  { return s.attachments.Remove(publicID) }
func (s *Service) StagedAttachments() []model.UploadedFile { return s.attachments.Staged() }

// SendMessage composes the outgoing user message from the request text and
// the staged attachment list, appends it to the active chat (creating one if
// needed) and executes the turn. All progress and failure reporting flows
// through emit, which SendMessage closes before returning.
func (s *Service) SendMessage(ctx context.Context, req *SendMessageRequest, emit chan<- model.StreamChunk) {
	defer closeEmit(emit)

	content := strings.TrimSpace(req.Content)
	staged := s.attachments.Staged()
	if content == "" && len(staged) == 0 {
		send(ctx, emit, model.StreamChunk{Error: "Message must contain text or at least one file.", Done: true})
		return
	}
	if s.engine.Busy() {
		send(ctx, emit, model.StreamChunk{Error: "A reply is already being generated.", Done: true})
		return
	}

	chatID, err := s.store.EnsureActiveChat(ctx)
	if err != nil {
		send(ctx, emit, model.StreamChunk{Error: "Could not create chat.", Done: true})
		return
	}

	files := s.attachments.Drain()
	if content == "" {
		content = fmt.Sprintf("Attached %d file(s)", len(files))
	}
	msg := model.Message{
		ID:        ident.New(),
		Role:      model.RoleUser,
		Content:   content,
		Timestamp: time.Now(),
		Files:     files,
	}
	if err := s.store.AppendMessage(ctx, chatID, msg); err != nil {
		send(ctx, emit, model.StreamChunk{Error: "Could not record message.", Done: true})
		return
	}

	prefix, err := s.store.Messages(chatID)
	if err != nil {
		send(ctx, emit, model.StreamChunk{Error: "Could not read conversation.", Done: true})
		return
	}
	s.engine.ExecuteTurn(ctx, chatID, prefix, emit)
}

// EditMessage rewrites a historical user message and regenerates everything
// after it: the conversation is truncated at the edit point, the rewritten
// message takes the original's id and role, and a new turn runs on the new
// prefix. Messages previously after the edited one are discarded for good.
func (s *Service) EditMessage(ctx context.Context, chatID, messageID string, req *EditMessageRequest, emit chan<- model.StreamChunk) {
	defer closeEmit(emit)

	content := strings.TrimSpace(req.Content)
	if content == "" && len(req.Files) == 0 {
		send(ctx, emit, model.StreamChunk{Error: "Message must contain text or at least one file.", Done: true})
		return
	}
	if s.engine.Busy() {
		send(ctx, emit, model.StreamChunk{Error: "A reply is already being generated.", Done: true})
		return
	}

	index, err := s.store.MessageIndex(chatID, messageID)
	if err != nil {
		send(ctx, emit, model.StreamChunk{Error: "Could not find chat.", Done: true})
		return
	}
	if index < 0 {
		send(ctx, emit, model.StreamChunk{Error: "Message not found.", Done: true})
		return
	}

	messages, err := s.store.Messages(chatID)
	if err != nil {
		send(ctx, emit, model.StreamChunk{Error: "Could not read conversation.", Done: true})
		return
	}
	original := messages[index]
	if original.Role != model.RoleUser {
		send(ctx, emit, model.StreamChunk{Error: "Only user messages can be edited.", Done: true})
		return
	}

	replacement := model.Message{
		ID:        original.ID,
		Role:      original.Role,
		Content:   content,
		Timestamp: time.Now(),
		Files:     req.Files,
	}
	if err := s.store.ReplaceMessagesFrom(ctx, chatID, index, []model.Message{replacement}); err != nil {
		send(ctx, emit, model.StreamChunk{Error: "Could not rewrite conversation.", Done: true})
		return
	}

	prefix, err := s.store.Messages(chatID)
	if err != nil {
		send(ctx, emit, model.StreamChunk{Error: "Could not read conversation.", Done: true})
		return
	}
	s.engine.ExecuteTurn(ctx, chatID, prefix, emit)
}

func closeEmit(emit chan<- model.StreamChunk) {
	if emit != nil {
		close(emit)
	}
}
