package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"lumen-chat/backend/internal/api"
	"lumen-chat/backend/internal/conversation"
	app_errors "lumen-chat/backend/internal/errors"
	"lumen-chat/backend/internal/interfaces/mocks"
	"lumen-chat/backend/internal/model"
)

func setupChatHandler(t *testing.T) (*api.ChatHandler, *mocks.MockConversationService) {
	mockSvc := mocks.NewMockConversationService(t)
	handler := api.NewChatHandler(mockSvc)
	return handler, mockSvc
}

// addChiURLParams simulates how the chi router injects URL parameters into the
// request context; without it chi.URLParam returns an empty string.
func addChiURLParams(req *http.Request, params map[string]string) *http.Request {
	chiCtx := chi.NewRouteContext()
	for key, value := range params {
		chiCtx.URLParams.Add(key, value)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, chiCtx))
}

func TestChatHandler_GetState(t *testing.T) {
	handler, mockSvc := setupChatHandler(t)
	mockSvc.On("State").Return(conversation.State{ActiveChatID: "c1", Pending: true}).Once()

	req := httptest.NewRequest(http.MethodGet, "/v1/state", nil)
	rr := httptest.NewRecorder()
	handler.GetState(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var state conversation.State
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &state))
	assert.Equal(t, "c1", state.ActiveChatID)
	assert.True(t, state.Pending)
}

func TestChatHandler_GetChats(t *testing.T) {
	handler, mockSvc := setupChatHandler(t)
	expectedChats := []*model.Chat{{ID: "chat1", Title: "Test Chat"}}
	mockSvc.On("ListChats").Return(expectedChats, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/v1/chats", nil)
	rr := httptest.NewRecorder()
	handler.GetChats(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var returnedChats []*model.Chat
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &returnedChats))
	assert.Equal(t, expectedChats, returnedChats)
}

func TestChatHandler_CreateChat(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockSvc := setupChatHandler(t)
		mockSvc.On("CreateChat", mock.Anything).Return(&model.Chat{ID: "new"}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/v1/chats", nil)
		rr := httptest.NewRecorder()
		handler.CreateChat(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
	})

	t.Run("Failure", func(t *testing.T) {
		handler, mockSvc := setupChatHandler(t)
		mockSvc.On("CreateChat", mock.Anything).Return(nil, errors.New("storage down")).Once()

		req := httptest.NewRequest(http.MethodPost, "/v1/chats", nil)
		rr := httptest.NewRecorder()
		handler.CreateChat(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestChatHandler_GetChat(t *testing.T) {
	chatID := "test-chat-id"

	t.Run("Success", func(t *testing.T) {
		handler, mockSvc := setupChatHandler(t)
		mockSvc.On("GetChat", chatID).Return(&model.Chat{ID: chatID}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/v1/chats/"+chatID, nil)
		req = addChiURLParams(req, map[string]string{"chatID": chatID})
		rr := httptest.NewRecorder()
		handler.GetChat(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Failure - Not Found", func(t *testing.T) {
		handler, mockSvc := setupChatHandler(t)
		mockSvc.On("GetChat", chatID).Return(nil, app_errors.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/v1/chats/"+chatID, nil)
		req = addChiURLParams(req, map[string]string{"chatID": chatID})
		rr := httptest.NewRecorder()
		handler.GetChat(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestChatHandler_SelectChat(t *testing.T) {
	chatID := "test-chat-id"
	handler, mockSvc := setupChatHandler(t)
	mockSvc.On("SelectChat", mock.Anything, chatID).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/v1/chats/"+chatID+"/select", nil)
	req = addChiURLParams(req, map[string]string{"chatID": chatID})
	rr := httptest.NewRecorder()
	handler.SelectChat(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestChatHandler_UpdateChatTitle(t *testing.T) {
	chatID := "test-chat-id"

	t.Run("Success", func(t *testing.T) {
		handler, mockSvc := setupChatHandler(t)
		newTitle := "A valid title"
		mockSvc.On("RenameChat", mock.Anything, chatID, newTitle).Return(nil).Once()

		req := httptest.NewRequest(http.MethodPut, "/v1/chats/"+chatID+"/title", strings.NewReader(`{"title": "`+newTitle+`"}`))
		req = addChiURLParams(req, map[string]string{"chatID": chatID})
		rr := httptest.NewRecorder()
		handler.UpdateChatTitle(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Failure - Validation Error (empty title)", func(t *testing.T) {
		handler, _ := setupChatHandler(t)
		req := httptest.NewRequest(http.MethodPut, "/v1/chats/"+chatID+"/title", strings.NewReader(`{"title": ""}`))
		req = addChiURLParams(req, map[string]string{"chatID": chatID})
		rr := httptest.NewRecorder()
		handler.UpdateChatTitle(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "Field 'Title' failed on the 'required' tag")
	})

	t.Run("Failure - Bad JSON", func(t *testing.T) {
		handler, _ := setupChatHandler(t)
		req := httptest.NewRequest(http.MethodPut, "/v1/chats/"+chatID+"/title", strings.NewReader(`{"title":`))
		req = addChiURLParams(req, map[string]string{"chatID": chatID})
		rr := httptest.NewRecorder()
		handler.UpdateChatTitle(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestChatHandler_HandleDeleteChat(t *testing.T) {
	chatID := "test-chat-id"

	t.Run("Success", func(t *testing.T) {
		handler, mockSvc := setupChatHandler(t)
		mockSvc.On("DeleteChat", mock.Anything, chatID).Return(nil).Once()

		req := httptest.NewRequest(http.MethodDelete, "/v1/chats/"+chatID, nil)
		req = addChiURLParams(req, map[string]string{"chatID": chatID})
		rr := httptest.NewRecorder()
		handler.HandleDeleteChat(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Failure - Not Found", func(t *testing.T) {
		handler, mockSvc := setupChatHandler(t)
		mockSvc.On("DeleteChat", mock.Anything, chatID).Return(app_errors.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodDelete, "/v1/chats/"+chatID, nil)
		req = addChiURLParams(req, map[string]string{"chatID": chatID})
		rr := httptest.NewRecorder()
		handler.HandleDeleteChat(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestChatHandler_HandleArchiveChat(t *testing.T) {
	chatID := "test-chat-id"
	handler, mockSvc := setupChatHandler(t)
	mockSvc.On("ArchiveChat", mock.Anything, chatID).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/v1/chats/"+chatID+"/archive", nil)
	req = addChiURLParams(req, map[string]string{"chatID": chatID})
	rr := httptest.NewRecorder()
	handler.HandleArchiveChat(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestChatHandler_HandleSendMessage(t *testing.T) {
	t.Run("Success - Service is called", func(t *testing.T) {
		handler, mockSvc := setupChatHandler(t)
		req := httptest.NewRequest(http.MethodPost, "/v1/chats/messages", strings.NewReader(`{"content": "hello"}`))
		rr := httptest.NewRecorder()

		// SendMessage runs in a goroutine and owns the channel; the mock must
		// close it or the handler would block forever.
		mockSvc.On("SendMessage", mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				streamChan := args.Get(2).(chan<- model.StreamChunk)
				streamChan <- model.StreamChunk{Content: "hi", Done: true}
				close(streamChan)
			}).Once()

		handler.HandleSendMessage(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "text/event-stream", rr.Header().Get("Content-Type"))
		assert.Contains(t, rr.Body.String(), `"content":"hi"`)
	})

	t.Run("Failure - Invalid JSON", func(t *testing.T) {
		handler, _ := setupChatHandler(t)
		req := httptest.NewRequest(http.MethodPost, "/v1/chats/messages", strings.NewReader(`{"content":`))
		rr := httptest.NewRecorder()

		handler.HandleSendMessage(rr, req)

		// Streaming endpoints report errors over the stream itself.
		assert.Contains(t, rr.Body.String(), "Invalid request body")
	})
}

func TestChatHandler_HandleEditMessage(t *testing.T) {
	t.Run("Success - Service is called with path params", func(t *testing.T) {
		handler, mockSvc := setupChatHandler(t)
		req := httptest.NewRequest(http.MethodPut, "/v1/chats/c1/messages/m1", strings.NewReader(`{"content": "edited"}`))
		req = addChiURLParams(req, map[string]string{"chatID": "c1", "messageID": "m1"})
		rr := httptest.NewRecorder()

		mockSvc.On("EditMessage", mock.Anything, "c1", "m1", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				streamChan := args.Get(4).(chan<- model.StreamChunk)
				close(streamChan)
			}).Once()

		handler.HandleEditMessage(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Failure - Invalid JSON", func(t *testing.T) {
		handler, _ := setupChatHandler(t)
		req := httptest.NewRequest(http.MethodPut, "/v1/chats/c1/messages/m1", strings.NewReader(`{`))
		req = addChiURLParams(req, map[string]string{"chatID": "c1", "messageID": "m1"})
		rr := httptest.NewRecorder()

		handler.HandleEditMessage(rr, req)

		assert.Contains(t, rr.Body.String(), "Invalid request body")
	})
}
