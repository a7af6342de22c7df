package conversation_test

import (
	"context"
	"sync"

	"lumen-chat/backend/internal/model"
	"lumen-chat/backend/internal/storage"
)

// fakeKV is an in-memory stand-in for the durable storage layer.
type fakeKV struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string]string)}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.data[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return value, nil
}

func (f *fakeKV) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return nil
}

func (f *fakeKV) Close() error { return nil }

// scriptedResponder plays back a canned reply, optionally failing, and
// records what it was asked.
type scriptedResponder struct {
	chunks []string
	err    error
	// gate, when non-nil, blocks the stream until it is closed. Used to
	// observe the engine mid-turn.
	gate chan struct{}

	mu       sync.Mutex
	calls    int
	lastUser string
	prefix   []model.Message
}

func (r *scriptedResponder) StreamTurn(_ context.Context, userID string, prefix []model.Message, out chan<- string) error {
	defer close(out)

	r.mu.Lock()
	r.calls++
	r.lastUser = userID
	r.prefix = prefix
	r.mu.Unlock()

	if r.gate != nil {
		<-r.gate
	}
	for _, c := range r.chunks {
		out <- c
	}
	return r.err
}

func (r *scriptedResponder) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func (r *scriptedResponder) lastPrefix() []model.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.prefix
}

func drain(ch <-chan model.StreamChunk) []model.StreamChunk {
	var out []model.StreamChunk
	for c := range ch {
		out = append(out, c)
	}
	return out
}

func collectContent(chunks []model.StreamChunk) string {
	var s string
	for _, c := range chunks {
		s += c.Content
	}
	return s
}
