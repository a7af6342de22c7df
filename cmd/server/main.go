package main

import (
	"os"

	"lumen-chat/backend/internal/app"
)

// @title        Lumen Chat API
// @version      1.0
// @description  Conversation, streaming reply, memory and upload API.
// @BasePath     /api
func main() {
	os.Exit(app.Run())
}
