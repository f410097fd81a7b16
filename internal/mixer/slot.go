package mixer

import (
	"sync/atomic"

	"github.com/CLCaron/nightjar-sub000/internal/pcm"
)

// Slot is one loaded track. Its geometry (offset/trim/effective length) is
// fixed at creation — changing it means building a new Slot and swapping it
// into the registry, never mutating in place. Volume and mute are the only
// fields mutated after creation, and they are mutated atomically so the
// audio callback can read them without a lock.
type Slot struct {
	TrackID int32
	Source  *pcm.Source

	OffsetFrames    int64
	TrimStartFrames int64
	TrimEndFrames   int64
	EffectiveFrames int64

	volumeBits atomic.Uint32 // float32 bits, read/written via math.Float32bits
	muted      atomic.Bool
}

// NewSlot builds a Slot from the control-plane inputs, computing
// EffectiveFrames = duration - trimStart - trimEnd from the source's own
// frame count. It returns no error when trimStart+trimEnd exceeds the
// duration; EffectiveFrames is clamped to 0 in that case.
func NewSlot(trackID int32, source *pcm.Source, offsetFrames, trimStartFrames, trimEndFrames int64, volume float32, muted bool) *Slot {
	duration := source.TotalFrames()
	effective := duration - trimStartFrames - trimEndFrames
	if effective < 0 {
		effective = 0
	}
	s := &Slot{
		TrackID:         trackID,
		Source:          source,
		OffsetFrames:    offsetFrames,
		TrimStartFrames: trimStartFrames,
		TrimEndFrames:   trimEndFrames,
		EffectiveFrames: effective,
	}
	s.SetVolume(volume)
	s.SetMuted(muted)
	return s
}

// Volume returns the current gain. Safe to call from the audio callback.
func (s *Slot) Volume() float32 {
	return float32FromBits(s.volumeBits.Load())
}

// SetVolume atomically updates the gain. UI-side only; a callback already
// in progress keeps the value it loaded, so the worst case is one buffer
// rendered at the old gain, which is acceptable for a gain control.
func (s *Slot) SetVolume(v float32) {
	s.volumeBits.Store(float32Bits(v))
}

// Muted reports whether the slot is currently muted.
func (s *Slot) Muted() bool {
	return s.muted.Load()
}

// SetMuted atomically updates the mute flag. UI-side only.
func (s *Slot) SetMuted(m bool) {
	s.muted.Store(m)
}

// EndFrame returns the global frame one past the slot's last audible frame.
func (s *Slot) EndFrame() int64 {
	return s.OffsetFrames + s.EffectiveFrames
}
