// Package session provides append-only per-session history used to build
// a short textual context digest for the next model call.
package session

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"thumbscope/internal/domain/model"
)

// History shaping constants.
const (
	// maxEventsPerSession caps stored history; truncation to the most
	// recent events is atomic per append.
	maxEventsPerSession = 20

	// digestEvents is how many recent events feed the digest.
	digestEvents = 8

	// digestMaxBytes bounds the digest length.
	digestMaxBytes = 2000
)

// Store is the session memory contract. Appends for the same session id
// must serialize; readers may run concurrently.
type Store interface {
	// GetOrCreate returns id when it names a known session, otherwise a
	// freshly created session id.
	GetOrCreate(ctx context.Context, id string) (string, error)

	// Append adds one event, trimming the session to its cap atomically.
	Append(ctx context.Context, id string, ev model.SessionEvent) error

	// Summarize builds the bounded text digest of recent events. Unknown
	// sessions summarize to "".
	Summarize(ctx context.Context, id string) (string, error)

	// History returns the stored events, oldest first.
	History(ctx context.Context, id string) ([]model.SessionEvent, error)

	// Count returns the number of known sessions.
	Count(ctx context.Context) int

	Close() error
}

// buildDigest renders the most recent events into the digest format and
// keeps only the trailing digestMaxBytes, aligned to a rune boundary.
func buildDigest(events []model.SessionEvent) string {
	if len(events) == 0 {
		return ""
	}
	if len(events) > digestEvents {
		events = events[len(events)-digestEvents:]
	}

	lines := make([]string, 0, len(events))
	for _, ev := range events {
		lines = append(lines, fmt.Sprintf("[score=%.1f] %s :: %s", ev.Score, ev.Title, ev.Summary))
	}
	full := strings.Join(lines, " | ")
	if len(full) <= digestMaxBytes {
		return full
	}

	cut := len(full) - digestMaxBytes
	for cut < len(full) && !utf8.RuneStart(full[cut]) {
		cut++
	}
	return full[cut:]
}
