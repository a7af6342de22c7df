package model

import "time"

// Role identifies who authored a message. Only user and assistant messages
// are ever stored in a chat; system prompts are assembled at request time.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// UploadedFile describes a previously uploaded blob. It is immutable once
// created: staging and un-staging move the value around, never change it.
type UploadedFile struct {
	URL          string `json:"url"`
	PublicID     string `json:"publicId"`
	OriginalName string `json:"originalName"`
	FileType     string `json:"fileType"`
	ResourceType string `json:"resourceType"`
	Bytes        int64  `json:"bytes"`
	Format       string `json:"format"`
}

// Message is a single turn in a chat. Content is mutable to support the
// incremental streaming fill-in of assistant replies and in-place edits of
// user messages; everything else is fixed at creation.
type Message struct {
	ID        string         `json:"id"`
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Files     []UploadedFile `json:"files,omitempty"`
}

// Chat stores a conversation: metadata plus the ordered message log.
// Messages are only ever appended to or truncated from the tail.
type Chat struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Memory is a short text snippet held by the memory service for a user.
type Memory struct {
	ID        string  `json:"id"`
	Content   string  `json:"content"`
	Relevance float64 `json:"relevance,omitempty"`
	Timestamp string  `json:"timestamp,omitempty"`
}

// StreamChunk is a single event in a streaming turn response. The first chunk
// of a turn carries the chat and assistant message ids, later chunks carry
// content deltas, and the final chunk has Done set.
type StreamChunk struct {
	ChatID    string `json:"chat_id,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	Content   string `json:"content,omitempty"`
	Done      bool   `json:"done,omitempty"`
	Error     string `json:"error,omitempty"`
}
