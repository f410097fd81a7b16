// Package transport holds the single process-wide playhead state shared
// between the UI thread and the output callback. Every field is
// independently atomic; there is no composite snapshot lock, so callers
// that need a consistent multi-field view (the output callback does) must
// read the fields in the order documented on Snapshot.
package transport

import "sync/atomic"

// Transport is the process-wide playback/record state. The zero value is a
// valid, stopped, non-looping, non-recording transport at position 0.
type Transport struct {
	playing     atomic.Bool
	recording   atomic.Bool
	pos         atomic.Int64
	total       atomic.Int64
	loopStart   atomic.Int64
	loopEnd     atomic.Int64
	loopResets  atomic.Int64
}

// New returns a Transport with no loop region and position 0.
func New() *Transport {
	t := &Transport{}
	t.loopStart.Store(-1)
	t.loopEnd.Store(-1)
	return t
}

// Snapshot is a point-in-time copy of the fields the output callback needs
// to render one buffer. It is not atomic as a whole — see the package doc —
// but reading playing with acquire-equivalent ordering before the rest is
// safe because Go's sync/atomic establishes sequential consistency across
// all atomic accesses to a value, not just happens-before pairs.
type Snapshot struct {
	Playing   bool
	Recording bool
	Pos       int64
	Total     int64
	LoopStart int64
	LoopEnd   int64
}

// Snapshot reads every field needed by the output callback in one pass.
func (t *Transport) Snapshot() Snapshot {
	return Snapshot{
		Playing:   t.playing.Load(),
		Recording: t.recording.Load(),
		Pos:       t.pos.Load(),
		Total:     t.total.Load(),
		LoopStart: t.loopStart.Load(),
		LoopEnd:   t.loopEnd.Load(),
	}
}

// HasLoop reports whether the loop region in s is active.
func (s Snapshot) HasLoop() bool {
	return s.LoopStart >= 0 && s.LoopEnd > s.LoopStart
}

// IsPlaying reports whether playback is currently active.
func (t *Transport) IsPlaying() bool {
	return t.playing.Load()
}

// SetPlaying sets the playing flag. UI-side only.
func (t *Transport) SetPlaying(v bool) {
	t.playing.Store(v)
}

// IsRecording reports whether overdub extension is active: when true, the
// output callback does not auto-stop at end-of-timeline.
func (t *Transport) IsRecording() bool {
	return t.recording.Load()
}

// SetRecording sets the recording flag. UI-side only.
func (t *Transport) SetRecording(v bool) {
	t.recording.Store(v)
}

// Pos returns the current playhead position in frames.
func (t *Transport) Pos() int64 {
	return t.pos.Load()
}

// SetPos stores a new playhead position. Used both by the UI (seek) and by
// the output callback (advance, loop wrap, end-of-timeline reset).
func (t *Transport) SetPos(p int64) {
	t.pos.Store(p)
}

// Total returns the cached total length in frames.
func (t *Transport) Total() int64 {
	return t.total.Load()
}

// SetTotal stores a newly computed total length. UI-side only, called after
// every structural track change.
func (t *Transport) SetTotal(frames int64) {
	t.total.Store(frames)
}

// LoopRegion returns the current loop bounds; inactive is start<0 or
// end<=start.
func (t *Transport) LoopRegion() (start, end int64) {
	return t.loopStart.Load(), t.loopEnd.Load()
}

// SetLoopRegion stores a new loop region.
func (t *Transport) SetLoopRegion(start, end int64) {
	t.loopStart.Store(start)
	t.loopEnd.Store(end)
}

// ClearLoopRegion disables the loop region.
func (t *Transport) ClearLoopRegion() {
	t.SetLoopRegion(-1, -1)
}

// HasLoop reports whether the loop region is currently active.
func (t *Transport) HasLoop() bool {
	start, end := t.LoopRegion()
	return start >= 0 && end > start
}

// LoopResetCount returns how many times the output callback has wrapped
// the playhead from loop end back to loop start.
func (t *Transport) LoopResetCount() int64 {
	return t.loopResets.Load()
}

// IncrementLoopResetCount is called by the output callback on every wrap.
func (t *Transport) IncrementLoopResetCount() {
	t.loopResets.Add(1)
}
