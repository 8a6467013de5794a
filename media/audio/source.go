// Package audio implements the audio mixer: it pulls the latest samples
// from each attached source on a fixed clock and averages them down to one
// stereo S16LE stream per tick.
package audio

import (
	"sync"
)

// frame is one 20ms block of interleaved S16 stereo samples.
type frame struct {
	samples []int16 // len == samplesPerFrame*channels
}

// Source is one inbound audio track: a bounded ring of pushed frames plus a
// stateful resampler so a track running at a different input rate still
// lines up with the mixer's fixed 20ms pull cadence.
type Source struct {
	mu          sync.Mutex
	id          string
	attachOrder int64

	channels int
	ring     []frame
	ringCap  int
	dropped  uint64

	leftover  []int16 // sub-frame remainder carried over from the previous Push
	resampler *resampler
}

func newSource(id string, order int64, channels, samplesPerFrame, ringCap int) *Source {
	return &Source{
		id:          id,
		attachOrder: order,
		channels:    channels,
		ringCap:     ringCap,
		resampler:   newResampler(channels),
	}
}

// ID returns the track identifier.
func (s *Source) ID() string { return s.id }

// Push appends decoded samples at the given input sample rate; the
// resampler converts them to the mixer's native rate before they're queued.
// When the ring is full, the oldest queued frame is dropped to make room —
// a live mixer favors freshness over completeness. A call that doesn't
// produce enough samples to fill a whole frame carries its remainder over
// to the next call instead of discarding it, so a source pushed in small
// chunks still eventually completes and queues a frame.
func (s *Source) Push(samples []int16, inputRate, nativeRate, samplesPerFrame int) {
	resampled := s.resampler.process(samples, inputRate, nativeRate)
	if len(resampled) == 0 {
		return
	}

	frameLen := samplesPerFrame * s.channels

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.leftover) > 0 {
		resampled = append(s.leftover, resampled...)
		s.leftover = nil
	}

	start := 0
	for ; start+frameLen <= len(resampled); start += frameLen {
		f := frame{samples: append([]int16(nil), resampled[start:start+frameLen]...)}
		if len(s.ring) >= s.ringCap {
			s.ring = s.ring[1:]
			s.dropped++
		}
		s.ring = append(s.ring, f)
	}
	if start < len(resampled) {
		s.leftover = append([]int16(nil), resampled[start:]...)
	}
}

// pull dequeues the next frame for this tick. ok is false on underrun, in
// which case the mixer contributes silence for this source this tick
// rather than blocking or replaying stale audio.
func (s *Source) pull() (frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.ring) == 0 {
		return frame{}, false
	}
	f := s.ring[0]
	s.ring = s.ring[1:]
	return f, true
}
