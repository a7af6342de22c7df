// Package chatutil holds small pure helpers shared by the conversation layer.
package chatutil

import (
	"strings"
	"unicode/utf8"
)

const (
	titleMaxLen   = 30
	titleMinBreak = 15
	ellipsis      = "..."
)

// GenerateChatTitle derives a short chat title from the first user message.
//
// Inputs of 30 characters or fewer are returned verbatim (trimmed). Longer
// inputs are cut at the first sentence when that sentence is short enough,
// otherwise at the last space inside the 30 character window when that space
// falls late enough to leave a readable fragment, otherwise hard at 30
// characters. Truncated titles get an ellipsis marker appended.
func GenerateChatTitle(firstMessage string) string {
	cleaned := strings.TrimSpace(firstMessage)
	if utf8.RuneCountInString(cleaned) <= titleMaxLen {
		return cleaned
	}

	// Prefer a natural break at the first sentence terminator.
	if i := strings.IndexAny(cleaned, ".!?"); i >= 0 {
		first := cleaned[:i]
		if first != "" && utf8.RuneCountInString(first) <= titleMaxLen {
			return strings.TrimSpace(first)
		}
	}

	window := []rune(cleaned)[:titleMaxLen]
	lastSpace := -1
	for i, r := range window {
		if r == ' ' {
			lastSpace = i
		}
	}
	if lastSpace > titleMinBreak {
		return string(window[:lastSpace]) + ellipsis
	}
	return string(window) + ellipsis
}

// Truncate shortens s to at most n runes, replacing the tail with a single
// ellipsis rune when it does not fit.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
