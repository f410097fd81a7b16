// Package engine is the facade the host process drives: it owns the
// mixer, transport, playback stream, and optional capture stream, and
// exposes the non-realtime control-plane API described for track, loop,
// transport, and recording operations.
package engine

import (
	"fmt"
	"time"

	"github.com/CLCaron/nightjar-sub000/internal/capture"
	"github.com/CLCaron/nightjar-sub000/internal/driver"
	"github.com/CLCaron/nightjar-sub000/internal/frame"
	"github.com/CLCaron/nightjar-sub000/internal/mixer"
	"github.com/CLCaron/nightjar-sub000/internal/pcm"
	"github.com/CLCaron/nightjar-sub000/internal/playback"
	"github.com/CLCaron/nightjar-sub000/internal/transport"
)

// Engine is instantiated once per process. It is safe for one control-plane
// goroutine at a time to call its methods; the realtime callbacks it starts
// run independently on driver threads.
type Engine struct {
	drv       driver.Driver
	transport *transport.Transport
	mixer     *mixer.Mixer
	playback  *playback.Stream
	capture   *capture.Stream

	nextSlotID int32
	sources    map[int32]*pcm.Source
}

// New constructs an Engine bound to drv. Call Initialize before using it.
func New(drv driver.Driver) *Engine {
	t := transport.New()
	m := mixer.New()
	return &Engine{
		drv:       drv,
		transport: t,
		mixer:     m,
		playback:  playback.New(drv, t, m),
		sources:   make(map[int32]*pcm.Source),
	}
}

// Initialize starts the output stream, which begins outputting silence
// until Play is called. Idempotent.
func (e *Engine) Initialize() error {
	if err := e.playback.Start(); err != nil {
		return fmt.Errorf("engine: initialize: %w", err)
	}
	return nil
}

// Shutdown stops any active recording, stops playback, and releases track
// sources. The Engine must not be used afterward.
func (e *Engine) Shutdown() {
	if e.capture != nil {
		e.capture.Stop()
		e.capture = nil
	}
	e.playback.Stop()
	for id, src := range e.sources {
		src.Close()
		delete(e.sources, id)
	}
	e.drv.Close()
}

// AddTrack opens the PCM source at path and installs a new slot at the
// given offset/trim/volume/mute. Returns false (with no state change) if
// the source cannot be opened.
func (e *Engine) AddTrack(id int32, path string, offsetMs, trimStartMs, trimEndMs int64, volume float32, muted bool) bool {
	src, err := pcm.Open(path)
	if err != nil {
		return false
	}

	slot := mixer.NewSlot(id, src, frame.FromMillis(offsetMs), frame.FromMillis(trimStartMs), frame.FromMillis(trimEndMs), volume, muted)
	e.mixer.Registry().Add(slot)
	e.sources[id] = src
	e.recomputeTotal()
	return true
}

// RemoveTrack deletes the track with the given ID and recomputes total
// length. Reports whether a track was removed.
func (e *Engine) RemoveTrack(id int32) bool {
	removed := e.mixer.Registry().Remove(id)
	if removed {
		if src, ok := e.sources[id]; ok {
			src.Close()
			delete(e.sources, id)
		}
		e.recomputeTotal()
	}
	return removed
}

// RemoveAllTracks clears the registry and resets the transport to a
// stopped state at position 0.
func (e *Engine) RemoveAllTracks() {
	e.mixer.Registry().RemoveAll()
	for id, src := range e.sources {
		src.Close()
		delete(e.sources, id)
	}
	e.transport.SetTotal(0)
	e.transport.SetPos(0)
	e.transport.SetPlaying(false)
}

func (e *Engine) recomputeTotal() {
	e.transport.SetTotal(e.mixer.Registry().TotalFrames())
}

// SetTrackVolume updates a track's volume via a lock-free scan of the
// active slot list. No-op if the track does not exist.
func (e *Engine) SetTrackVolume(id int32, v float32) {
	if slot := e.mixer.Registry().Find(id); slot != nil {
		slot.SetVolume(v)
	}
}

// SetTrackMuted updates a track's mute flag via a lock-free scan of the
// active slot list. No-op if the track does not exist.
func (e *Engine) SetTrackMuted(id int32, m bool) {
	if slot := e.mixer.Registry().Find(id); slot != nil {
		slot.SetMuted(m)
	}
}

// Play resumes playback. If the playhead is already at or past the total
// length, it snaps to the loop start (if a loop is active) or to 0 before
// starting.
func (e *Engine) Play() {
	if e.transport.Pos() >= e.transport.Total() {
		if start, _ := e.transport.LoopRegion(); e.transport.HasLoop() {
			e.transport.SetPos(start)
		} else {
			e.transport.SetPos(0)
		}
	}
	e.transport.SetPlaying(true)
}

// Pause halts playback without moving the playhead.
func (e *Engine) Pause() {
	e.transport.SetPlaying(false)
}

// SeekToMillis clamps ms to [0, total] and stores the playhead.
func (e *Engine) SeekToMillis(ms int64) {
	pos := frame.FromMillis(ms)
	if pos < 0 {
		pos = 0
	}
	if total := e.transport.Total(); pos > total {
		pos = total
	}
	e.transport.SetPos(pos)
}

// SetLoopRegion installs an active loop region.
func (e *Engine) SetLoopRegion(startMs, endMs int64) {
	e.transport.SetLoopRegion(frame.FromMillis(startMs), frame.FromMillis(endMs))
}

// ClearLoopRegion disables the loop region.
func (e *Engine) ClearLoopRegion() {
	e.transport.ClearLoopRegion()
}

// LoopResetCount reports how many times playback has wrapped at the loop
// boundary, sampled by the UI for post-hoc loop-take splitting.
func (e *Engine) LoopResetCount() int64 {
	return e.transport.LoopResetCount()
}

// IsPlaying reports the transport's playing flag.
func (e *Engine) IsPlaying() bool {
	return e.transport.IsPlaying()
}

// PositionMillis reports the current playhead in milliseconds.
func (e *Engine) PositionMillis() int64 {
	return frame.ToMillis(e.transport.Pos())
}

// TotalDurationMillis reports the cached total length in milliseconds.
func (e *Engine) TotalDurationMillis() int64 {
	return frame.ToMillis(e.transport.Total())
}

// StartRecording opens a new capture stream to path and transitions it
// through Opening/Primed. The caller must still call AwaitFirstBuffer and
// OpenWriteGate before captured samples reach disk.
func (e *Engine) StartRecording(path string) error {
	if e.capture != nil {
		return fmt.Errorf("engine: recording already active")
	}
	c := capture.New(e.drv)
	if err := c.Start(path); err != nil {
		return err
	}
	e.capture = c
	return nil
}

// AwaitFirstBuffer blocks (via bounded polling) until the capture pipeline
// confirms it is delivering samples, or the timeout expires.
func (e *Engine) AwaitFirstBuffer(timeoutMs int64) bool {
	if e.capture == nil {
		return false
	}
	return e.capture.AwaitFirstBuffer(time.Duration(timeoutMs) * time.Millisecond)
}

// OpenWriteGate begins persisting captured samples to disk. The wall-clock
// moment of this call is the caller's zero point for the new track's
// trim_start compensation.
func (e *Engine) OpenWriteGate() {
	if e.capture != nil {
		e.capture.OpenWriteGate()
	}
}

// StopRecording stops the active capture stream and returns the recorded
// duration in milliseconds, or -1 if no recording was active (or none was
// ever gated open).
func (e *Engine) StopRecording() int64 {
	if e.capture == nil {
		return -1
	}
	d := e.capture.Stop()
	e.capture = nil
	return d
}

// SetRecording toggles the transport's overdub-extension flag: while true,
// the output callback does not auto-stop at end-of-timeline.
func (e *Engine) SetRecording(v bool) {
	e.transport.SetRecording(v)
}

// LatestPeakAmplitude returns the most recent capture callback's peak
// |sample|, or 0 if no recording is active.
func (e *Engine) LatestPeakAmplitude() float32 {
	if e.capture == nil {
		return 0
	}
	return e.capture.LatestPeakAmplitude()
}

// RecordedDurationMillis returns the active recording's duration so far.
func (e *Engine) RecordedDurationMillis() int64 {
	if e.capture == nil {
		return 0
	}
	return e.capture.RecordedDurationMillis()
}
