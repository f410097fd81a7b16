// Package mixer implements the track registry and the per-callback
// mono-to-stereo render loop. The render path allocates nothing: its
// scratch buffers are fields on Mixer, sized once at construction and
// reused for the life of the stream.
package mixer

import "math"

// MaxCallbackFrames bounds the largest buffer Render can be asked to fill
// in one call. Driver configurations that advertise a larger burst size
// must be rejected when the playback stream opens, before Render is ever
// called with an out-of-bounds buffer.
const MaxCallbackFrames = 8192

// Mixer owns the track registry and the stereo render loop that sums the
// active tracks' contributions into an output buffer.
type Mixer struct {
	registry *Registry
	mono     [MaxCallbackFrames]float32
}

// New returns an empty Mixer.
func New() *Mixer {
	return &Mixer{registry: NewRegistry()}
}

// Registry exposes the track registry for control-plane operations
// (add/remove/volume/mute) and for TotalFrames recomputation.
func (m *Mixer) Registry() *Registry {
	return m.registry
}

// Render fills out (n stereo frames, interleaved L/R, len(out) == 2n) with
// the mix of every active, unmuted, audible slot at playhead pos, then
// applies tanh soft-clip saturation to the summed result.
//
// n must not exceed MaxCallbackFrames; callers enforce this once at stream
// open rather than on every call.
func (m *Mixer) Render(out []float32, pos int64) {
	n := len(out) / 2
	for i := range out {
		out[i] = 0
	}

	for _, slot := range m.registry.Active() {
		if slot.Muted() {
			continue
		}
		vol := slot.Volume()
		if vol <= 0 {
			continue
		}

		local := pos - slot.OffsetFrames
		if local >= slot.EffectiveFrames || local+int64(n) <= 0 {
			continue
		}

		var skipOut, sourceStart, readCount int64
		if local < 0 {
			skipOut = -local
			sourceStart = slot.TrimStartFrames
			readCount = int64(n) - skipOut
		} else {
			sourceStart = slot.TrimStartFrames + local
			readCount = int64(n)
		}

		if maxRead := slot.EffectiveFrames - max64(local, 0); readCount > maxRead {
			readCount = maxRead
		}
		if readCount <= 0 {
			continue
		}

		mono := m.mono[:readCount]
		got := slot.Source.ReadFrames(mono, sourceStart)
		for i := 0; i < got; i++ {
			s := mono[i] * vol
			idx := (skipOut + int64(i)) * 2
			out[idx] += s
			out[idx+1] += s
		}
	}

	for i, v := range out {
		out[i] = float32(math.Tanh(float64(v)))
	}
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
