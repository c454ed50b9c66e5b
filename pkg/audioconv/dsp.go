package audioconv

import "math"

// pcmFromInts scales signed integer samples of the given bit depth to [-1, 1].
func pcmFromInts(data []int, bitDepth int) []float32 {
	full := float64(int64(1) << (bitDepth - 1))
	out := make([]float32, len(data))
	for i, v := range data {
		out[i] = float32(min(max(float64(v)/full, -1), 1))
	}
	return out
}

func pcmFromInt16(data []int16) []float32 {
	out := make([]float32, len(data))
	for i, v := range data {
		out[i] = float32(v) / 32768
	}
	return out
}

// mono averages interleaved frames into one channel.
func mono(in []float32, channels int) []float32 {
	if channels <= 1 {
		return in
	}
	frames := len(in) / channels
	out := make([]float32, frames)
	for f := range frames {
		var acc float64
		for _, s := range in[f*channels : (f+1)*channels] {
			acc += float64(s)
		}
		out[f] = float32(acc / float64(channels))
	}
	return out
}

// resample converts between rates by linear interpolation. Good enough for
// speech headed to a recognizer.
func resample(in []float32, from, to int) []float32 {
	if from == to || len(in) == 0 {
		return in
	}
	step := float64(from) / float64(to)
	n := int(math.Ceil(float64(len(in)) * float64(to) / float64(from)))
	last := len(in) - 1
	out := make([]float32, n)
	for i := range n {
		pos := float64(i) * step
		lo := int(pos)
		if lo >= last {
			out[i] = in[last]
			continue
		}
		frac := float32(pos - float64(lo))
		out[i] = in[lo] + (in[lo+1]-in[lo])*frac
	}
	return out
}

func pcmToInts(data []float32) []int {
	out := make([]int, len(data))
	for i, v := range data {
		out[i] = int(min(max(v, -1), 1) * math.MaxInt16)
	}
	return out
}
