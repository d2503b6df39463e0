// Package dedupe detects repeat thumbnail submissions within a session
// using perceptual hashing. A repeat is flagged, never rejected: scoring a
// re-upload is cheap and the caller only wants the diagnostic.
package dedupe

import (
	"context"
	"image"
	"sync"
	"sync/atomic"

	"github.com/corona10/goimagehash"
)

// Default detector configuration.
const (
	// defaultDistanceThreshold is the maximum Hamming distance between
	// two difference hashes below which images count as the same
	// thumbnail.
	defaultDistanceThreshold = 10

	// defaultPerSessionCap bounds remembered hashes per session,
	// matching the session history cap.
	defaultPerSessionCap = 20
)

// Detector records perceptual hashes per session and reports repeats.
type Detector interface {
	// SeenAndRecord atomically checks whether img perceptually matches
	// an earlier submission in the session and records its hash if not.
	// Returns true for a repeat. Hash failures degrade to "not seen".
	SeenAndRecord(ctx context.Context, sessionID string, img image.Image) bool

	// Forget drops all recorded hashes for a session.
	Forget(ctx context.Context, sessionID string)

	Size() int64
}

// Option applies a configuration option to the in-memory detector.
type Option func(*inMemoryDetector)

// WithDistanceThreshold sets the maximum Hamming distance for a match.
func WithDistanceThreshold(d int) Option {
	return func(m *inMemoryDetector) {
		if d > 0 {
			m.threshold = d
		}
	}
}

// WithPerSessionCap bounds the number of hashes kept per session.
func WithPerSessionCap(n int) Option {
	return func(m *inMemoryDetector) {
		if n > 0 {
			m.perSessionCap = n
		}
	}
}

type inMemoryDetector struct {
	mu            sync.Mutex
	hashes        map[string][]*goimagehash.ImageHash
	threshold     int
	perSessionCap int
	size          atomic.Int64
}

// NewInMemoryDetector creates a Detector backed by a per-session hash map.
func NewInMemoryDetector(opts ...Option) Detector {
	m := &inMemoryDetector{
		hashes:        make(map[string][]*goimagehash.ImageHash),
		threshold:     defaultDistanceThreshold,
		perSessionCap: defaultPerSessionCap,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *inMemoryDetector) SeenAndRecord(_ context.Context, sessionID string, img image.Image) bool {
	hash, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, h := range m.hashes[sessionID] {
		if dist, err := hash.Distance(h); err == nil && dist < m.threshold {
			return true
		}
	}

	seen := append(m.hashes[sessionID], hash)
	if len(seen) > m.perSessionCap {
		m.size.Add(int64(m.perSessionCap - len(seen)))
		seen = seen[len(seen)-m.perSessionCap:]
	}
	m.hashes[sessionID] = seen
	m.size.Add(1)
	return false
}

func (m *inMemoryDetector) Forget(_ context.Context, sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.size.Add(int64(-len(m.hashes[sessionID])))
	delete(m.hashes, sessionID)
}

func (m *inMemoryDetector) Size() int64 {
	return m.size.Load()
}
