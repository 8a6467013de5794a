package audio

import (
	"sort"
	"sync"

	"github.com/coursecast/coursecast/config"
	"github.com/coursecast/coursecast/helpers"
	"github.com/coursecast/coursecast/media/clock"
	"github.com/rs/zerolog/log"
)

// Frame is the immutable output of one audio tick: one 20ms block of
// interleaved S16LE stereo samples, averaged from every live source.
type Frame struct {
	Tick    int64
	Samples []int16
}

// Mixer owns the source set and mixes their latest frames on every tick.
type Mixer struct {
	mu        sync.Mutex
	sources   map[string]*Source
	nextOrder int64

	cfg     config.AudioConfig
	clk     *clock.Clock
	shortID string
}

// New creates a Mixer for one recording session.
func New(cfg config.AudioConfig, shortID string) *Mixer {
	return &Mixer{
		sources: make(map[string]*Source),
		cfg:     cfg,
		clk:     clock.NewAudioClock(),
		shortID: shortID,
	}
}

// Attach registers a new inbound audio track and returns its Source.
func (m *Mixer) Attach(id string) *Source {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextOrder++
	src := newSource(id, m.nextOrder, m.cfg.Channels, m.cfg.SamplesPerFrame, m.cfg.RingFrames)
	m.sources[id] = src
	log.Info().Str("context", "mixer").Str("room", m.shortID).Str("track", id).Msg("audio_source_attached")
	return src
}

// Detach removes an audio source.
func (m *Mixer) Detach(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sources, id)
	log.Info().Str("context", "mixer").Str("room", m.shortID).Str("track", id).Msg("audio_source_detached")
}

func (m *Mixer) orderedSources() []*Source {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := make([]*Source, 0, len(m.sources))
	for _, s := range m.sources {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].attachOrder != list[j].attachOrder {
			return list[i].attachOrder < list[j].attachOrder
		}
		return list[i].id < list[j].id
	})
	return list
}

// NextFrame blocks until the next audio tick and mixes one Frame.
func (m *Mixer) NextFrame(tick int64) (Frame, bool) {
	idx, ok := m.clk.Next(tick)
	if !ok {
		return Frame{}, false
	}
	return m.mix(idx), true
}

// Run drives the pull loop, calling emit once per tick until emit returns
// false or Stop is called.
func (m *Mixer) Run(emit func(Frame) bool) {
	m.clk.Run(func(tick int64) bool {
		return emit(m.mix(tick))
	})
}

// Stop releases the mixer's clock.
func (m *Mixer) Stop() {
	m.clk.Stop()
}

// mix averages every source's frame for this tick; sources that underrun
// contribute silence rather than stalling the whole mix. The result is
// always exactly SamplesPerFrame*Channels samples, even with zero sources.
func (m *Mixer) mix(tick int64) Frame {
	n := m.cfg.SamplesPerFrame * m.cfg.Channels
	sum := make([]int32, n)

	sources := m.orderedSources()
	live := 0
	for _, s := range sources {
		f, ok := s.pull()
		if !ok {
			continue
		}
		live++
		for i := 0; i < n && i < len(f.samples); i++ {
			sum[i] += int32(f.samples[i])
		}
	}

	out := make([]int16, n)
	if live > 0 {
		for i, v := range sum {
			out[i] = helpers.ClampInt16(v / int32(live))
		}
	}
	return Frame{Tick: tick, Samples: out}
}
