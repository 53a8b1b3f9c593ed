package frontend

// resampler converts interleaved stereo float samples from the core's rate
// to the device rate by linear interpolation. It keeps the last input frame
// so output is continuous across calls.
type resampler struct {
	step   float64 // input frames per output frame
	pos    float64 // next output position between prev (0) and the next input frame (1)
	prevL  float32
	prevR  float32
	primed bool
	out    []int16
}

func (r *resampler) setRate(in, out float64) {
	if in <= 0 || out <= 0 {
		r.step = 1
		return
	}
	r.step = in / out
}

// process returns interleaved 16-bit output. The slice is reused by the next
// call.
func (r *resampler) process(samples []float32) []int16 {
	if r.step <= 0 {
		r.step = 1
	}
	r.out = r.out[:0]
	for i := 0; i+1 < len(samples); i += 2 {
		l, rt := samples[i], samples[i+1]
		if !r.primed {
			r.prevL, r.prevR = l, rt
			r.primed = true
			continue
		}
		for r.pos < 1 {
			t := float32(r.pos)
			r.out = append(r.out, toInt16(r.prevL+(l-r.prevL)*t), toInt16(r.prevR+(rt-r.prevR)*t))
			r.pos += r.step
		}
		r.pos--
		r.prevL, r.prevR = l, rt
	}
	return r.out
}

func (r *resampler) reset() {
	r.pos = 0
	r.primed = false
}

func toInt16(v float32) int16 {
	switch {
	case v >= 1:
		return 32767
	case v <= -1:
		return -32767
	}
	return int16(v * 32767)
}
