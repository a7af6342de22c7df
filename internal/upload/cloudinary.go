package upload

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"regexp"
	"time"

	"lumen-chat/backend/internal/model"
)

var unsafePublicIDChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// CloudinaryUploader implements Uploader against the Cloudinary upload API
// using signed uploads.
type CloudinaryUploader struct {
	http      *http.Client
	baseURL   string
	cloudName string
	apiKey    string
	apiSecret string
	folder    string
}

// NewCloudinaryUploader builds an uploader for the given cloud. baseURL
// overrides the API host when non-empty; tests point it at a local server.
func NewCloudinaryUploader(baseURL, cloudName, apiKey, apiSecret, folder string) *CloudinaryUploader {
	if baseURL == "" {
		baseURL = "https://api.cloudinary.com"
	}
	return &CloudinaryUploader{
		http:      &http.Client{},
		baseURL:   baseURL,
		cloudName: cloudName,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		folder:    folder,
	}
}

type cloudinaryResponse struct {
	SecureURL    string `json:"secure_url"`
	PublicID     string `json:"public_id"`
	ResourceType string `json:"resource_type"`
	Format       string `json:"format"`
	Bytes        int64  `json:"bytes"`
}

// Upload validates nothing; callers run ValidateFile first. It performs a
// signed multipart upload and maps the response onto the UploadedFile shape
// the rest of the application uses.
func (u *CloudinaryUploader) Upload(ctx context.Context, name, mimeType string, data []byte) (*model.UploadedFile, error) {
	resourceType := ResourceType(mimeType)
	publicID := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), unsafePublicIDChars.ReplaceAllString(name, "_"))
	timestamp := fmt.Sprintf("%d", time.Now().Unix())

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return nil, fmt.Errorf("could not build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("could not write upload payload: %w", err)
	}

	fields := map[string]string{
		"api_key":   u.apiKey,
		"folder":    u.folder,
		"public_id": publicID,
		"timestamp": timestamp,
		"signature": u.sign(publicID, timestamp),
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("could not write form field %s: %w", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("could not finalize upload form: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1_1/%s/%s/upload", u.baseURL, u.cloudName, resourceType)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("could not create upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := u.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("upload api returned status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed cloudinaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("could not decode upload response: %w", err)
	}

	return &model.UploadedFile{
		URL:          parsed.SecureURL,
		PublicID:     parsed.PublicID,
		OriginalName: name,
		FileType:     mimeType,
		ResourceType: parsed.ResourceType,
		Bytes:        parsed.Bytes,
		Format:       parsed.Format,
	}, nil
}

// sign produces the request signature: the SHA-1 of the sorted signed
// parameters with the API secret appended.
func (u *CloudinaryUploader) sign(publicID, timestamp string) string {
	toSign := fmt.Sprintf("folder=%s&public_id=%s&timestamp=%s%s", u.folder, publicID, timestamp, u.apiSecret)
	sum := sha1.Sum([]byte(toSign))
	return hex.EncodeToString(sum[:])
}
