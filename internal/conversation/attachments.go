package conversation

import (
	"sync"

	"lumen-chat/backend/internal/model"
)

// AttachmentManager tracks files staged for the next outgoing message. Staged
// files live outside any chat until send time, when ownership transfers to the
// new message and the pending list is cleared.
type AttachmentManager struct {
	mu     sync.Mutex
	staged []model.UploadedFile
}

func NewAttachmentManager() *AttachmentManager {
	return &AttachmentManager{}
}

// Stage adds an uploaded file to the pending list.
func (m *AttachmentManager) Stage(file model.UploadedFile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staged = append(m.staged, file)
}

// Remove un-stages the file with the given storage id. It reports whether a
// file was removed.
func (m *AttachmentManager) Remove(publicID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, f := range m.staged {
		if f.PublicID == publicID {
			m.staged = append(m.staged[:i], m.staged[i+1:]...)
			return true
		}
	}
	return false
}

// Staged returns a snapshot of the pending list.
func (m *AttachmentManager) Staged() []model.UploadedFile {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.UploadedFile, len(m.staged))
	copy(out, m.staged)
	return out
}

// Drain returns the pending list and clears it in one step.
func (m *AttachmentManager) Drain() []model.UploadedFile {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.staged
	m.staged = nil
	return out
}
