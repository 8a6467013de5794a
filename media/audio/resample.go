package audio

// resampler linearly interpolates a multi-channel sample stream from one
// rate to another, carrying its fractional phase and last-seen sample
// across calls so a track pushed in small chunks resamples as one
// continuous stream rather than restarting at each chunk boundary. This
// adapts the ratio/lerp step used by sequencing.LinearInterpolator — there
// it walks a time ratio from 0 to 1 to interpolate a single control value;
// here the same lerp runs once per output sample, continuously, across an
// entire audio stream.
type resampler struct {
	channels int
	phase    float64 // fractional position of the next output sample, relative to prev
	prev     []int16 // last channels-wide input frame seen, for continuity
}

func newResampler(channels int) *resampler {
	return &resampler{channels: channels, prev: make([]int16, channels)}
}

// process resamples samples (interleaved, channels-wide frames) from
// inputRate to nativeRate. When the rates match it's a pass-through.
func (r *resampler) process(samples []int16, inputRate, nativeRate int) []int16 {
	ch := r.channels
	frameCount := len(samples) / ch
	if frameCount == 0 {
		return nil
	}
	if inputRate <= 0 || nativeRate <= 0 || inputRate == nativeRate {
		r.storeLast(samples)
		return samples
	}

	ratio := float64(inputRate) / float64(nativeRate) // input frames advanced per output frame
	extended := func(i int) []int16 {
		if i == 0 {
			return r.prev
		}
		return samples[(i-1)*ch : (i-1)*ch+ch]
	}

	var out []int16
	pos := r.phase
	for pos+1 <= float64(frameCount) {
		lo := int(pos)
		frac := pos - float64(lo)
		left := extended(lo)
		right := extended(lo + 1)
		for c := 0; c < ch; c++ {
			v := float64(left[c]) + (float64(right[c])-float64(left[c]))*frac
			out = append(out, int16(v))
		}
		pos += ratio
	}
	r.phase = pos - float64(frameCount)

	r.storeLast(samples)
	return out
}

func (r *resampler) storeLast(samples []int16) {
	ch := r.channels
	if len(samples) < ch {
		return
	}
	copy(r.prev, samples[len(samples)-ch:])
}
