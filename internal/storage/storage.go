// Package storage provides the durable key-value layer behind the
// conversation store. The application persists exactly two records: the full
// serialized chat list and the active chat id. Both backends treat values as
// opaque strings.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when a key has never been written.
// Callers translate it into their own defaults rather than failing.
var ErrNotFound = errors.New("storage: key not found")

// KV is the contract the conversation store persists through.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}
