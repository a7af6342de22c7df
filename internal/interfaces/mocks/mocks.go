// Package mocks provides testify mocks for the service interfaces.
package mocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"lumen-chat/backend/internal/conversation"
	"lumen-chat/backend/internal/model"
)

// MockConversationService mocks interfaces.ConversationService.
type MockConversationService struct {
	mock.Mock
}

func NewMockConversationService(t *testing.T) *MockConversationService {
	m := &MockConversationService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockConversationService) ListChats() []*model.Chat {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]*model.Chat)
}

func (m *MockConversationService) GetChat(id string) (*model.Chat, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Chat), args.Error(1)
}

func (m *MockConversationService) CreateChat(ctx context.Context) (*model.Chat, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Chat), args.Error(1)
}

func (m *MockConversationService) SelectChat(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockConversationService) RenameChat(ctx context.Context, id, title string) error {
	return m.Called(ctx, id, title).Error(0)
}

func (m *MockConversationService) DeleteChat(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockConversationService) ArchiveChat(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockConversationService) State() conversation.State {
	return m.Called().Get(0).(conversation.State)
}

func (m *MockConversationService) StageAttachment(file model.UploadedFile) {
	m.Called(file)
}

func (m *MockConversationService) UnstageAttachment(publicID string) bool {
	return m.Called(publicID).Bool(0)
}

func (m *MockConversationService) StagedAttachments() []model.UploadedFile {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]model.UploadedFile)
}

func (m *MockConversationService) SendMessage(ctx context.Context, req *conversation.SendMessageRequest, emit chan<- model.StreamChunk) {
	m.Called(ctx, req, emit)
}

func (m *MockConversationService) EditMessage(ctx context.Context, chatID, messageID string, req *conversation.EditMessageRequest, emit chan<- model.StreamChunk) {
	m.Called(ctx, chatID, messageID, req, emit)
}

// MockMemoryService mocks interfaces.MemoryService.
type MockMemoryService struct {
	mock.Mock
}

func NewMockMemoryService(t *testing.T) *MockMemoryService {
	m := &MockMemoryService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockMemoryService) List(ctx context.Context, userID string) ([]model.Memory, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Memory), args.Error(1)
}

func (m *MockMemoryService) Delete(ctx context.Context, memoryID string) error {
	return m.Called(ctx, memoryID).Error(0)
}

// MockUploadService mocks interfaces.UploadService.
type MockUploadService struct {
	mock.Mock
}

func NewMockUploadService(t *testing.T) *MockUploadService {
	m := &MockUploadService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockUploadService) Upload(ctx context.Context, name, mimeType string, data []byte) (*model.UploadedFile, error) {
	args := m.Called(ctx, name, mimeType, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UploadedFile), args.Error(1)
}
