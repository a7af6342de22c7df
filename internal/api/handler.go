package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lumen-chat/backend/internal/conversation"
	"lumen-chat/backend/internal/interfaces"
	"lumen-chat/backend/internal/model"
)

// ChatHandler handles HTTP requests for conversations and turn execution.
type ChatHandler struct {
	service interfaces.ConversationService
}

func NewChatHandler(svc interfaces.ConversationService) *ChatHandler {
	return &ChatHandler{service: svc}
}

// GetState godoc
// @Summary      Get application state
// @Description  Returns the active chat id and the engine's streaming flags.
// @Tags         State
// @Produce      json
// @Success      200  {object}  conversation.State
// @Router       /v1/state [get]
func (h *ChatHandler) GetState(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.service.State())
}

// GetChats godoc
// @Summary      List chats
// @Description  Returns all chats, newest first.
// @Tags         Chats
// @Produce      json
// @Success      200  {array}  model.Chat
// @Router       /v1/chats [get]
func (h *ChatHandler) GetChats(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.service.ListChats())
}

// CreateChat godoc
// @Summary      Create a chat
// @Description  Creates an empty chat and makes it the active one.
// @Tags         Chats
// @Produce      json
// @Success      201  {object}  model.Chat
// @Failure      500  {object}  ErrorResponse
// @Router       /v1/chats [post]
func (h *ChatHandler) CreateChat(w http.ResponseWriter, r *http.Request) {
	chat, err := h.service.CreateChat(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, chat)
}

// GetChat godoc
// @Summary      Get a chat
// @Description  Returns a single chat with its full message history.
// @Tags         Chats
// @Produce      json
// @Param        chatID  path  string  true  "Chat ID"
// @Success      200  {object}  model.Chat
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/chats/{chatID} [get]
func (h *ChatHandler) GetChat(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	chat, err := h.service.GetChat(chatID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, chat)
}

// SelectChat godoc
// @Summary      Select the active chat
// @Tags         Chats
// @Produce      json
// @Param        chatID  path  string  true  "Chat ID"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/chats/{chatID}/select [post]
func (h *ChatHandler) SelectChat(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	if err := h.service.SelectChat(r.Context(), chatID); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// UpdateChatTitle godoc
// @Summary      Rename a chat
// @Tags         Chats
// @Accept       json
// @Produce      json
// @Param        chatID  path  string              true  "Chat ID"
// @Param        title   body  UpdateTitleRequest  true  "New title"
// @Success      200  {object}  StatusResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/chats/{chatID}/title [put]
func (h *ChatHandler) UpdateChatTitle(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	var req UpdateTitleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload"})
		return
	}
	if err := validateRequest(req); err != nil {
		respondWithError(w, err)
		return
	}
	if err := h.service.RenameChat(r.Context(), chatID, req.Title); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// HandleDeleteChat godoc
// @Summary      Delete a chat
// @Tags         Chats
// @Produce      json
// @Param        chatID  path  string  true  "Chat ID"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/chats/{chatID} [delete]
func (h *ChatHandler) HandleDeleteChat(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	if err := h.service.DeleteChat(r.Context(), chatID); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// HandleArchiveChat godoc
// @Summary      Archive a chat
// @Description  Removes the chat from the active list.
// @Tags         Chats
// @Produce      json
// @Param        chatID  path  string  true  "Chat ID"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/chats/{chatID}/archive [post]
func (h *ChatHandler) HandleArchiveChat(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	if err := h.service.ArchiveChat(r.Context(), chatID); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// HandleSendMessage godoc
// @Summary      Send a message
// @Description  Appends a user message to the active chat and streams the reply. This is a streaming endpoint.
// @Tags         Messages
// @Accept       json
// @Produce      text/event-stream
// @Param        message  body  conversation.SendMessageRequest  true  "Message content"
// @Success      200  {object}  model.StreamChunk "Stream of reply chunks"
// @Failure      400  {object}  ErrorResponse "Sent as a stream error event"
// @Router       /v1/chats/messages [post]
func (h *ChatHandler) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	var req conversation.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Error decoding send message request", "error", err)
		sendStreamError(w, "Invalid request body")
		return
	}

	streamChan := make(chan model.StreamChunk)
	go h.service.SendMessage(r.Context(), &req, streamChan)

	h.pumpStream(w, r, streamChan)
}

// HandleEditMessage godoc
// @Summary      Edit a message and regenerate
// @Description  Rewrites a user message, discards everything after it and streams a fresh reply. This is a streaming endpoint.
// @Tags         Messages
// @Accept       json
// @Produce      text/event-stream
// @Param        chatID     path  string                           true  "Chat ID"
// @Param        messageID  path  string                           true  "Message ID"
// @Param        message    body  conversation.EditMessageRequest  true  "Replacement content"
// @Success      200  {object}  model.StreamChunk "Stream of reply chunks"
// @Failure      400  {object}  ErrorResponse "Sent as a stream error event"
// @Router       /v1/chats/{chatID}/messages/{messageID} [put]
func (h *ChatHandler) HandleEditMessage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	chatID := chi.URLParam(r, "chatID")
	messageID := chi.URLParam(r, "messageID")

	var req conversation.EditMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Error decoding edit message request", "error", err)
		sendStreamError(w, "Invalid request body")
		return
	}

	streamChan := make(chan model.StreamChunk)
	go h.service.EditMessage(r.Context(), chatID, messageID, &req, streamChan)

	h.pumpStream(w, r, streamChan)
}

// pumpStream forwards chunks from the service to the SSE response until the
// channel closes or the client disconnects.
func (h *ChatHandler) pumpStream(w http.ResponseWriter, r *http.Request, streamChan <-chan model.StreamChunk) {
	for chunk := range streamChan {
		if r.Context().Err() != nil {
			slog.Info("Client disconnected during stream.")
			break
		}
		if err := writeStreamEvent(w, chunk); err != nil {
			slog.Warn("Could not write to stream, client likely disconnected.", "error", err)
			break
		}
	}
	slog.Info("Finished streaming response.")
}
