package api

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lumen-chat/backend/internal/interfaces"
	"lumen-chat/backend/internal/upload"
)

// UploadHandler handles attachment uploads and the staged attachment list.
type UploadHandler struct {
	uploader interfaces.UploadService
	service  interfaces.ConversationService
}

func NewUploadHandler(uploader interfaces.UploadService, svc interfaces.ConversationService) *UploadHandler {
	return &UploadHandler{uploader: uploader, service: svc}
}

// HandleUpload godoc
// @Summary      Upload an attachment
// @Description  Validates and uploads a file, then stages it for the next outgoing message.
// @Tags         Uploads
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "File to upload"
// @Success      201  {object}  model.UploadedFile
// @Failure      400  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /v1/uploads [post]
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, upload.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(upload.MaxUploadBytes); err != nil {
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Could not parse upload form"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Missing file field"})
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	if err := upload.ValidateFile(mimeType, header.Size); err != nil {
		respondWithError(w, err)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Could not read upload"})
		return
	}

	uploaded, err := h.uploader.Upload(r.Context(), header.Filename, mimeType, data)
	if err != nil {
		respondWithError(w, err)
		return
	}

	h.service.StageAttachment(*uploaded)
	respondWithJSON(w, http.StatusCreated, uploaded)
}

// HandleListStaged godoc
// @Summary      List staged attachments
// @Tags         Uploads
// @Produce      json
// @Success      200  {array}  model.UploadedFile
// @Router       /v1/uploads [get]
func (h *UploadHandler) HandleListStaged(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.service.StagedAttachments())
}

// HandleUnstage godoc
// @Summary      Remove a staged attachment
// @Description  Drops a staged attachment by its public id. Public ids may contain slashes.
// @Tags         Uploads
// @Produce      json
// @Param        publicID  path  string  true  "Attachment public ID"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/uploads/{publicID} [delete]
func (h *UploadHandler) HandleUnstage(w http.ResponseWriter, r *http.Request) {
	publicID := chi.URLParam(r, "*")
	if publicID == "" || !h.service.UnstageAttachment(publicID) {
		respondWithJSON(w, http.StatusNotFound, ErrorResponse{Error: "No staged attachment with that id"})
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}
