// Package upload is the boundary to the managed media-upload service.
// Constraints (size ceiling, MIME allow-list) are enforced before any bytes
// leave the process.
package upload

import (
	"context"
	"fmt"
	"strings"

	app_errors "lumen-chat/backend/internal/errors"
	"lumen-chat/backend/internal/model"
)

// MaxUploadBytes is the hard ceiling on a single upload.
const MaxUploadBytes = 10 << 20 // 10 MiB

// allowedMIMETypes is the fixed allow-list of uploadable content types.
var allowedMIMETypes = map[string]struct{}{
	"image/jpeg": {},
	"image/jpg":  {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"text/plain":       {},
	"text/markdown":    {},
	"application/json": {},
	"text/csv":         {},
}

// Uploader stores a blob remotely and returns its descriptor.
type Uploader interface {
	Upload(ctx context.Context, name, mimeType string, data []byte) (*model.UploadedFile, error)
}

// ValidateFile checks the constraints that apply before an upload attempt.
func ValidateFile(mimeType string, size int64) error {
	if size > MaxUploadBytes {
		return fmt.Errorf("%w: file size too large, maximum size is 10MB", app_errors.ErrValidation)
	}
	if _, ok := allowedMIMETypes[mimeType]; !ok {
		return fmt.Errorf("%w: file type %s is not supported", app_errors.ErrValidation, mimeType)
	}
	return nil
}

// ResourceType classifies content into the store's two coarse kinds.
func ResourceType(mimeType string) string {
	if strings.HasPrefix(mimeType, "image/") {
		return "image"
	}
	return "raw"
}
