package api

import (
	"net/http"
	"time"

	// This blank import is required by swaggo to find the API definitions.
	_ "lumen-chat/backend/docs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

// NewRouter creates and configures a chi router with all application routes.
// The memory and upload handlers are optional; their routes are only mounted
// when the corresponding external service is configured.
func NewRouter(chatHandler *ChatHandler, uploadHandler *UploadHandler, memoryHandler *MemoryHandler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/api/swagger/*", httpSwagger.WrapHandler)

	// Liveness probe for container orchestration.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// Standard JSON routes get a request timeout so client connections
		// cannot hang indefinitely.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Get("/state", chatHandler.GetState)

			r.Get("/chats", chatHandler.GetChats)
			r.Post("/chats", chatHandler.CreateChat)
			r.Get("/chats/{chatID}", chatHandler.GetChat)
			r.Post("/chats/{chatID}/select", chatHandler.SelectChat)
			r.Put("/chats/{chatID}/title", chatHandler.UpdateChatTitle)
			r.Post("/chats/{chatID}/archive", chatHandler.HandleArchiveChat)
			r.Delete("/chats/{chatID}", chatHandler.HandleDeleteChat)

			if uploadHandler != nil {
				r.Get("/uploads", uploadHandler.HandleListStaged)
				r.Post("/uploads", uploadHandler.HandleUpload)
				r.Delete("/uploads/*", uploadHandler.HandleUnstage)
			}

			if memoryHandler != nil {
				r.Get("/memories", memoryHandler.HandleListMemories)
				r.Delete("/memories/{memoryID}", memoryHandler.HandleDeleteMemory)
			}
		})

		// Streaming routes hold the connection open and must not time out.
		r.Group(func(r chi.Router) {
			r.Post("/chats/messages", chatHandler.HandleSendMessage)
			r.Put("/chats/{chatID}/messages/{messageID}", chatHandler.HandleEditMessage)
		})
	})

	return r
}
