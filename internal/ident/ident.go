// Package ident generates the opaque string identifiers used for chats and
// messages. Ids start with a base36 millisecond timestamp so that ids created
// in sequence sort roughly chronologically, followed by a random suffix that
// makes collisions within the same millisecond a non-issue.
package ident

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// New returns a new unique identifier.
func New() string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return ts + suffix
}
