package api_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"lumen-chat/backend/internal/api"
	"lumen-chat/backend/internal/interfaces/mocks"
	"lumen-chat/backend/internal/model"
)

func TestMemoryHandler_HandleListMemories(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockSvc := mocks.NewMockMemoryService(t)
		handler := api.NewMemoryHandler(mockSvc, "u-1")
		mockSvc.On("List", mock.Anything, "u-1").
			Return([]model.Memory{{ID: "m1", Content: "prefers Go"}}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/v1/memories", nil)
		rr := httptest.NewRecorder()
		handler.HandleListMemories(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "prefers Go")
	})

	t.Run("Failure", func(t *testing.T) {
		mockSvc := mocks.NewMockMemoryService(t)
		handler := api.NewMemoryHandler(mockSvc, "u-1")
		mockSvc.On("List", mock.Anything, "u-1").Return(nil, errors.New("service down")).Once()

		req := httptest.NewRequest(http.MethodGet, "/v1/memories", nil)
		rr := httptest.NewRecorder()
		handler.HandleListMemories(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestMemoryHandler_HandleDeleteMemory(t *testing.T) {
	mockSvc := mocks.NewMockMemoryService(t)
	handler := api.NewMemoryHandler(mockSvc, "u-1")
	mockSvc.On("Delete", mock.Anything, "m1").Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/v1/memories/m1", nil)
	req = addChiURLParams(req, map[string]string{"memoryID": "m1"})
	rr := httptest.NewRecorder()
	handler.HandleDeleteMemory(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}
