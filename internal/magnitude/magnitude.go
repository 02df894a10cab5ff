// Package magnitude converts interleaved 8-bit I/Q samples into a
// single 8-bit magnitude stream, the DSP front end feeding the Mode S
// frame decoder.
package magnitude

import "math"

// Convert computes the magnitude of one I/Q pair, centered on 127 and
// clamped to [0,255].
func Convert(i, q uint8) uint8 {
	di := float64(int16(i) - 127)
	dq := float64(int16(q) - 127)
	mag := math.Round(math.Sqrt(di*di + dq*dq))
	if mag > 255 {
		mag = 255
	}
	return uint8(mag)
}

// Stage turns a run of interleaved I/Q bytes into magnitude samples.
// It is stateless between calls except for alignment: if ToMagnitude
// is handed an odd-length buffer, the trailing unpaired byte is
// buffered and consumed as the "I" of the next call, so callers never
// need to guarantee even-length reads themselves.
type Stage struct {
	pending    uint8
	hasPending bool
}

// ToMagnitude appends the magnitude of every complete I/Q pair in src
// (including any byte carried over from a previous call) to the
// magnitude stream.
func (s *Stage) ToMagnitude(src []byte) []uint8 {
	out := make([]uint8, 0, (len(src)+1)/2)

	i := 0
	if s.hasPending {
		if len(src) == 0 {
			return out
		}
		out = append(out, Convert(s.pending, src[0]))
		i = 1
		s.hasPending = false
	}

	for ; i+1 < len(src); i += 2 {
		out = append(out, Convert(src[i], src[i+1]))
	}

	if i < len(src) {
		s.pending = src[i]
		s.hasPending = true
	}

	return out
}
