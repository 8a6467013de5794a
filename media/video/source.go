package video

import (
	"image"
	"sync"
	"time"
)

// Source is one inbound video track: it exposes only the most recently
// decoded frame. It is owned by the recording session and destroyed with
// it; it never references the session.
type Source struct {
	mu          sync.Mutex
	id          string
	attachOrder int64
	frame       image.Image
	updatedAt   time.Time
}

func newSource(id string, order int64) *Source {
	return &Source{id: id, attachOrder: order}
}

// ID returns the track identifier used for lexicographic tie-breaking.
func (s *Source) ID() string { return s.id }

// Push stores the latest decoded frame from the track. Called by the
// RecordingSession's track-handling goroutine as RTP is decoded upstream.
func (s *Source) Push(img image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = img
	s.updatedAt = time.Now()
}

// snapshot returns the most recent frame if it is still fresh (not older
// than staleAfter); once a source goes stale it drops out of the composed
// layout until it pushes again.
func (s *Source) snapshot(staleAfter time.Duration) (image.Image, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frame == nil {
		return nil, false
	}
	if time.Since(s.updatedAt) > staleAfter {
		return nil, false
	}
	return s.frame, true
}
