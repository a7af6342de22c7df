package interfaces

import (
	"context"

	"lumen-chat/backend/internal/conversation"
	"lumen-chat/backend/internal/model"
)

// This file defines the interfaces the API layer depends on. Handlers take
// these instead of concrete implementations so they can be tested with mocks.

// ConversationService is the contract for chat state and turn execution.
type ConversationService interface {
	ListChats() []*model.Chat
	GetChat(id string) (*model.Chat, error)
	CreateChat(ctx context.Context) (*model.Chat, error)
	SelectChat(ctx context.Context, id string) error
	RenameChat(ctx context.Context, id, title string) error
	DeleteChat(ctx context.Context, id string) error
	ArchiveChat(ctx context.Context, id string) error
	State() conversation.State
	StageAttachment(file model.UploadedFile)
	UnstageAttachment(publicID string) bool
	StagedAttachments() []model.UploadedFile
	SendMessage(ctx context.Context, req *conversation.SendMessageRequest, emit chan<- model.StreamChunk)
	EditMessage(ctx context.Context, chatID, messageID string, req *conversation.EditMessageRequest, emit chan<- model.StreamChunk)
}

// MemoryService is the contract for browsing and pruning stored memories.
type MemoryService interface {
	List(ctx context.Context, userID string) ([]model.Memory, error)
	Delete(ctx context.Context, memoryID string) error
}

// UploadService stores an attachment remotely and returns its descriptor.
type UploadService interface {
	Upload(ctx context.Context, name, mimeType string, data []byte) (*model.UploadedFile, error)
}
