package audio

import "testing"

func TestResamplePassThroughWhenRatesMatch(t *testing.T) {
	r := newResampler(1)
	in := []int16{10, 20, 30, 40}
	out := r.process(in, 48000, 48000)
	if len(out) != len(in) {
		t.Fatalf("expected pass-through, got len %d", len(out))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("pass-through mismatch at %d: got %d want %d", i, out[i], in[i])
		}
	}
}

func TestResampleDownsampleHalvesLength(t *testing.T) {
	r := newResampler(1)
	in := make([]int16, 100)
	for i := range in {
		in[i] = int16(i)
	}
	out := r.process(in, 48000, 24000)
	// roughly half the frames for a 2:1 downsample
	if out == nil || len(out) < 40 || len(out) > 60 {
		t.Fatalf("expected roughly 50 samples, got %d", len(out))
	}
}

func TestResampleIsMonotonicAcrossCalls(t *testing.T) {
	r := newResampler(1)
	var out []int16
	for chunk := 0; chunk < 5; chunk++ {
		in := make([]int16, 10)
		for i := range in {
			in[i] = int16(chunk*10 + i)
		}
		out = append(out, r.process(in, 48000, 24000)...)
	}
	for i := 1; i < len(out); i++ {
		if out[i] < out[i-1] {
			t.Fatalf("expected non-decreasing resampled ramp, got drop at %d: %d -> %d", i, out[i-1], out[i])
		}
	}
}
