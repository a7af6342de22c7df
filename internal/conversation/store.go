package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"lumen-chat/backend/internal/chatutil"
	app_errors "lumen-chat/backend/internal/errors"
	"lumen-chat/backend/internal/ident"
	"lumen-chat/backend/internal/model"
	"lumen-chat/backend/internal/storage"
)

// Keys of the two durable records: the full serialized chat list and the
// active chat id. Both are rewritten after every mutation so that a restart
// restores state exactly.
const (
	conversationsKey = "conversations"
	activeChatIDKey  = "active_chat_id"
)

// DefaultTitle is the placeholder title a chat carries until its first user
// message arrives or the user renames it.
const DefaultTitle = "New conversation"

// Store is the single source of truth for the set of chats and which one is
// active. All mutations are synchronous and atomic under one lock; readers
// always observe a fully-formed snapshot.
type Store struct {
	kv storage.KV

	mu       sync.Mutex
	chats    []*model.Chat
	activeID string
}

func NewStore(kv storage.KV) *Store {
	return &Store{kv: kv}
}

// Load restores the chat list and active chat id from durable storage.
// Missing records are treated as an empty state, not an error.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.kv.Get(ctx, conversationsKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.chats = nil
	case err != nil:
		return fmt.Errorf("could not load conversations: %w", err)
	default:
		var chats []*model.Chat
		if err := json.Unmarshal([]byte(raw), &chats); err != nil {
			return fmt.Errorf("could not decode conversations: %w", err)
		}
		s.chats = chats
	}

	activeID, err := s.kv.Get(ctx, activeChatIDKey)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("could not load active chat id: %w", err)
	}
	if s.findLocked(activeID) != nil {
		s.activeID = activeID
	} else {
		s.activeID = ""
	}
	return nil
}

// CreateChat allocates a new empty chat, makes it active and returns a copy.
func (s *Store) CreateChat(ctx context.Context) (*model.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat := s.createChatLocked()
	if err := s.persistLocked(ctx); err != nil {
		return nil, err
	}
	return copyChat(chat), nil
}

// EnsureActiveChat returns the active chat id, creating and activating a new
// chat when none is selected or the selected one no longer exists.
func (s *Store) EnsureActiveChat(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findLocked(s.activeID) != nil {
		return s.activeID, nil
	}
	chat := s.createChatLocked()
	if err := s.persistLocked(ctx); err != nil {
		return "", err
	}
	return chat.ID, nil
}

// SelectChat makes the given chat active.
func (s *Store) SelectChat(ctx context.Context, chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findLocked(chatID) == nil {
		return fmt.Errorf("%w: chat %s", app_errors.ErrNotFound, chatID)
	}
	s.activeID = chatID
	return s.persistLocked(ctx)
}

// RenameChat sets a user-chosen title.
func (s *Store) RenameChat(ctx context.Context, chatID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat := s.findLocked(chatID)
	if chat == nil {
		return fmt.Errorf("%w: chat %s", app_errors.ErrNotFound, chatID)
	}
	chat.Title = title
	chat.UpdatedAt = time.Now()
	return s.persistLocked(ctx)
}

// DeleteChat removes the chat permanently. Deleting the active chat clears
// the active id.
func (s *Store) DeleteChat(ctx context.Context, chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, c := range s.chats {
		if c.ID == chatID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: chat %s", app_errors.ErrNotFound, chatID)
	}
	s.chats = append(s.chats[:idx], s.chats[idx+1:]...)
	if s.activeID == chatID {
		s.activeID = ""
	}
	return s.persistLocked(ctx)
}

// ArchiveChat currently behaves exactly like DeleteChat; there is no separate
// archived lifecycle yet.
func (s *Store) ArchiveChat(ctx context.Context, chatID string) error {
	return s.DeleteChat(ctx, chatID)
}

// AppendMessage appends to the tail of the chat's message log. The first user
// message of a chat also sets the chat title.
func (s *Store) AppendMessage(ctx context.Context, chatID string, msg model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat := s.findLocked(chatID)
	if chat == nil {
		return fmt.Errorf("%w: chat %s", app_errors.ErrNotFound, chatID)
	}
	if len(chat.Messages) == 0 && msg.Role == model.RoleUser {
		if title := chatutil.GenerateChatTitle(msg.Content); title != "" {
			chat.Title = title
		}
	}
	chat.Messages = append(chat.Messages, msg)
	chat.UpdatedAt = time.Now()
	return s.persistLocked(ctx)
}

// ReplaceMessagesFrom truncates the message log to [0, index) and appends
// tail. Used exclusively by the edit/replay flow; the truncation is
// destructive and not undoable.
func (s *Store) ReplaceMessagesFrom(ctx context.Context, chatID string, index int, tail []model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat := s.findLocked(chatID)
	if chat == nil {
		return fmt.Errorf("%w: chat %s", app_errors.ErrNotFound, chatID)
	}
	if index < 0 || index > len(chat.Messages) {
		return fmt.Errorf("%w: message index %d out of range", app_errors.ErrValidation, index)
	}
	chat.Messages = append(chat.Messages[:index:index], tail...)
	chat.UpdatedAt = time.Now()
	return s.persistLocked(ctx)
}

// UpdateMessageContent replaces a message's content in place. It backs both
// the streaming fill-in of assistant replies and the final edited text of a
// user message.
func (s *Store) UpdateMessageContent(ctx context.Context, chatID, messageID, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat := s.findLocked(chatID)
	if chat == nil {
		return fmt.Errorf("%w: chat %s", app_errors.ErrNotFound, chatID)
	}
	for i := range chat.Messages {
		if chat.Messages[i].ID == messageID {
			chat.Messages[i].Content = content
			chat.UpdatedAt = time.Now()
			return s.persistLocked(ctx)
		}
	}
	return fmt.Errorf("%w: message %s", app_errors.ErrNotFound, messageID)
}

// Chats returns a snapshot of all chats, newest first.
func (s *Store) Chats() []*model.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*model.Chat, 0, len(s.chats))
	for _, c := range s.chats {
		out = append(out, copyChat(c))
	}
	return out
}

// Chat returns a snapshot of a single chat.
func (s *Store) Chat(chatID string) (*model.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat := s.findLocked(chatID)
	if chat == nil {
		return nil, fmt.Errorf("%w: chat %s", app_errors.ErrNotFound, chatID)
	}
	return copyChat(chat), nil
}

// Messages returns a snapshot of the chat's ordered message log.
func (s *Store) Messages(chatID string) ([]model.Message, error) {
	chat, err := s.Chat(chatID)
	if err != nil {
		return nil, err
	}
	return chat.Messages, nil
}

// MessageIndex returns the position of a message within the chat, or -1 when
// the message does not exist.
func (s *Store) MessageIndex(chatID, messageID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat := s.findLocked(chatID)
	if chat == nil {
		return -1, fmt.Errorf("%w: chat %s", app_errors.ErrNotFound, chatID)
	}
	for i := range chat.Messages {
		if chat.Messages[i].ID == messageID {
			return i, nil
		}
	}
	return -1, nil
}

// ActiveChatID returns the currently active chat id, or "" when none.
func (s *Store) ActiveChatID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

func (s *Store) createChatLocked() *model.Chat {
	now := time.Now()
	chat := &model.Chat{
		ID:        ident.New(),
		Title:     DefaultTitle,
		Messages:  []model.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	// Newest chats go first, matching the sidebar ordering.
	s.chats = append([]*model.Chat{chat}, s.chats...)
	s.activeID = chat.ID
	return chat
}

func (s *Store) findLocked(chatID string) *model.Chat {
	if chatID == "" {
		return nil
	}
	for _, c := range s.chats {
		if c.ID == chatID {
			return c
		}
	}
	return nil
}

// persistLocked mirrors the in-memory state to durable storage. Both records
// are rewritten so a reload reconstructs state exactly.
func (s *Store) persistLocked(ctx context.Context) error {
	raw, err := json.Marshal(s.chats)
	if err != nil {
		return fmt.Errorf("could not encode conversations: %w", err)
	}
	if err := s.kv.Set(ctx, conversationsKey, string(raw)); err != nil {
		return fmt.Errorf("could not persist conversations: %w", err)
	}
	if err := s.kv.Set(ctx, activeChatIDKey, s.activeID); err != nil {
		return fmt.Errorf("could not persist active chat id: %w", err)
	}
	return nil
}

func copyChat(c *model.Chat) *model.Chat {
	out := *c
	out.Messages = make([]model.Message, len(c.Messages))
	copy(out.Messages, c.Messages)
	return &out
}
