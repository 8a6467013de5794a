package audio

import (
	"testing"

	"github.com/coursecast/coursecast/config"
)

func testAudioCfg() config.AudioConfig {
	return config.AudioConfig{
		SampleRate:      48000,
		SamplesPerFrame: 4,
		Channels: 2,
		RingFrames:      4,
	}
}

func TestMixWithNoSourcesIsSilence(t *testing.T) {
	m := New(testAudioCfg(), "room1")
	defer m.Stop()

	f := m.mix(1)
	if len(f.Samples) != 8 {
		t.Fatalf("expected 8 samples, got %d", len(f.Samples))
	}
	for _, v := range f.Samples {
		if v != 0 {
			t.Fatalf("expected silence, got %d", v)
		}
	}
}

func TestMixAveragesTwoSources(t *testing.T) {
	cfg := testAudioCfg()
	m := New(cfg, "room1")
	defer m.Stop()

	a := m.Attach("a")
	b := m.Attach("b")

	a.Push([]int16{100, 100, 100, 100, 100, 100, 100, 100}, cfg.SampleRate, cfg.SampleRate, cfg.SamplesPerFrame)
	b.Push([]int16{300, 300, 300, 300, 300, 300, 300, 300}, cfg.SampleRate, cfg.SampleRate, cfg.SamplesPerFrame)

	f := m.mix(1)
	for _, v := range f.Samples {
		if v != 200 {
			t.Fatalf("expected averaged sample 200, got %d", v)
		}
	}
}

func TestMixWithUnderrunContributesSilenceNotBlock(t *testing.T) {
	cfg := testAudioCfg()
	m := New(cfg, "room1")
	defer m.Stop()

	a := m.Attach("a")
	m.Attach("b") // never pushes: should underrun without affecting mix availability
	a.Push([]int16{400, 400, 400, 400, 400, 400, 400, 400}, cfg.SampleRate, cfg.SampleRate, cfg.SamplesPerFrame)

	f := m.mix(1)
	for _, v := range f.Samples {
		if v != 400 {
			t.Fatalf("expected 400 (only live source counted), got %d", v)
		}
	}
}

func TestRingDropsOldestOnOverflow(t *testing.T) {
	cfg := testAudioCfg()
	cfg.RingFrames = 2
	m := New(cfg, "room1")
	defer m.Stop()

	a := m.Attach("a")
	for i := 0; i < 5; i++ {
		v := int16((i + 1) * 10)
		a.Push([]int16{v, v, v, v, v, v, v, v}, cfg.SampleRate, cfg.SampleRate, cfg.SamplesPerFrame)
	}

	if len(a.ring) > cfg.RingFrames {
		t.Fatalf("ring exceeded cap: %d > %d", len(a.ring), cfg.RingFrames)
	}
	if a.dropped == 0 {
		t.Fatal("expected dropped frame count > 0 after overflow")
	}
}

func TestPushCarriesSubFrameRemainderAcrossCalls(t *testing.T) {
	cfg := testAudioCfg() // SamplesPerFrame=4, Channels=2: a full frame is 8 samples
	m := New(cfg, "room1")
	defer m.Stop()

	a := m.Attach("a")

	// each push is half a frame; neither alone should queue anything.
	a.Push([]int16{100, 100, 100, 100}, cfg.SampleRate, cfg.SampleRate, cfg.SamplesPerFrame)
	if len(a.ring) != 0 {
		t.Fatalf("expected no queued frame after a sub-frame push, got %d", len(a.ring))
	}

	a.Push([]int16{100, 100, 100, 100}, cfg.SampleRate, cfg.SampleRate, cfg.SamplesPerFrame)
	if len(a.ring) != 1 {
		t.Fatalf("expected the two sub-frame pushes to combine into one queued frame, got %d", len(a.ring))
	}

	f := m.mix(1)
	for _, v := range f.Samples {
		if v != 100 {
			t.Fatalf("expected combined sample 100, got %d", v)
		}
	}
}

func TestPushCarriesRemainderPastAFullFrame(t *testing.T) {
	cfg := testAudioCfg()
	m := New(cfg, "room1")
	defer m.Stop()

	a := m.Attach("a")

	// 12 samples = 1 full frame (8) plus a 4-sample remainder.
	a.Push([]int16{1, 1, 1, 1, 1, 1, 1, 1, 2, 2, 2, 2}, cfg.SampleRate, cfg.SampleRate, cfg.SamplesPerFrame)
	if len(a.ring) != 1 {
		t.Fatalf("expected exactly one queued frame, got %d", len(a.ring))
	}
	if len(a.leftover) != 4 {
		t.Fatalf("expected a 4-sample leftover, got %d", len(a.leftover))
	}

	// completing the remainder with another half-frame should queue a
	// second frame built from the carried-over samples plus the new ones.
	a.Push([]int16{2, 2, 2, 2}, cfg.SampleRate, cfg.SampleRate, cfg.SamplesPerFrame)
	if len(a.ring) != 2 {
		t.Fatalf("expected two queued frames after completing the remainder, got %d", len(a.ring))
	}
	if len(a.leftover) != 0 {
		t.Fatalf("expected leftover to be consumed, got %d", len(a.leftover))
	}

	first, ok := a.pull()
	if !ok {
		t.Fatal("expected first frame")
	}
	for _, v := range first.samples {
		if v != 1 {
			t.Fatalf("expected first frame all 1s, got %d", v)
		}
	}
	second, ok := a.pull()
	if !ok {
		t.Fatal("expected second frame")
	}
	for _, v := range second.samples {
		if v != 2 {
			t.Fatalf("expected second frame all 2s, got %d", v)
		}
	}
}

func TestClampInt16OnLoudMix(t *testing.T) {
	cfg := testAudioCfg()
	cfg.RingFrames = 4
	m := New(cfg, "room1")
	defer m.Stop()

	a := m.Attach("a")
	b := m.Attach("b")
	loud := []int16{32767, 32767, 32767, 32767, 32767, 32767, 32767, 32767}
	a.Push(loud, cfg.SampleRate, cfg.SampleRate, cfg.SamplesPerFrame)
	b.Push(loud, cfg.SampleRate, cfg.SampleRate, cfg.SamplesPerFrame)

	f := m.mix(1)
	for _, v := range f.Samples {
		if v != 32767 {
			t.Fatalf("expected clamp to 32767, got %d", v)
		}
	}
}
