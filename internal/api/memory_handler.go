package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"lumen-chat/backend/internal/interfaces"
)

// MemoryHandler exposes the stored long-term memories for browsing and pruning.
type MemoryHandler struct {
	service interfaces.MemoryService
	userID  string
}

func NewMemoryHandler(svc interfaces.MemoryService, userID string) *MemoryHandler {
	return &MemoryHandler{service: svc, userID: userID}
}

// HandleListMemories godoc
// @Summary      List memories
// @Description  Returns all memories stored for the current user.
// @Tags         Memories
// @Produce      json
// @Success      200  {array}  model.Memory
// @Failure      500  {object}  ErrorResponse
// @Router       /v1/memories [get]
func (h *MemoryHandler) HandleListMemories(w http.ResponseWriter, r *http.Request) {
	memories, err := h.service.List(r.Context(), h.userID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, memories)
}

// HandleDeleteMemory godoc
// @Summary      Delete a memory
// @Tags         Memories
// @Produce      json
// @Param        memoryID  path  string  true  "Memory ID"
// @Success      200  {object}  StatusResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /v1/memories/{memoryID} [delete]
func (h *MemoryHandler) HandleDeleteMemory(w http.ResponseWriter, r *http.Request) {
	memoryID := chi.URLParam(r, "memoryID")
	if err := h.service.Delete(r.Context(), memoryID); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}
