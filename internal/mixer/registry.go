package mixer

import (
	"sync"
	"sync/atomic"
)

// list is a preallocated backing node for the double-buffered registry.
// Registry keeps two of these around permanently and only ever swaps which
// one the audio callback sees — it never frees either.
type list struct {
	slots []*Slot
}

// Registry is the double-buffered, lock-free-for-readers track list
// described in the engine's track mixer component. Exactly one of listA/
// listB is "active" at any time, selected by an atomic pointer; the other
// is "scratch," used as the staging area for the next mutation.
//
// Readers (the audio callback, and the lock-free volume/mute setters) only
// ever load the active pointer and traverse — they never take editMu.
// Structural mutations (add/remove/remove-all) take editMu, which is held
// only by control-plane callers and never by the audio callback.
type Registry struct {
	listA, listB list
	active       atomic.Pointer[list]
	editMu       sync.Mutex
}

// NewRegistry returns an empty registry with listA active.
func NewRegistry() *Registry {
	r := &Registry{}
	r.active.Store(&r.listA)
	return r
}

// Active returns the slots currently visible to the audio callback. The
// returned slice must be treated as read-only by the caller; only the
// registry's own mutate path ever writes to a list's backing slice.
func (r *Registry) Active() []*Slot {
	return r.active.Load().slots
}

func (r *Registry) scratch() *list {
	if r.active.Load() == &r.listA {
		return &r.listB
	}
	return &r.listA
}

// mutate applies f to a fresh copy of the active list's contents staged in
// the scratch list, then publishes the scratch list as active. f receives
// the scratch slice (already containing a copy of every active slot) and
// returns the mutated slice to publish.
func (r *Registry) mutate(f func([]*Slot) []*Slot) {
	r.editMu.Lock()
	defer r.editMu.Unlock()

	activeSlots := r.Active()
	s := r.scratch()
	s.slots = append(s.slots[:0], activeSlots...)
	s.slots = f(s.slots)
	r.active.Store(s)
}

// Add appends slot to the registry and publishes the result.
func (r *Registry) Add(slot *Slot) {
	r.mutate(func(slots []*Slot) []*Slot {
		return append(slots, slot)
	})
}

// Remove deletes the slot with the given track ID, if present, and
// publishes the result. Reports whether a slot was removed.
func (r *Registry) Remove(trackID int32) bool {
	removed := false
	r.mutate(func(slots []*Slot) []*Slot {
		out := slots[:0]
		for _, s := range slots {
			if s.TrackID == trackID {
				removed = true
				continue
			}
			out = append(out, s)
		}
		return out
	})
	return removed
}

// RemoveAll empties the registry.
func (r *Registry) RemoveAll() {
	r.mutate(func(slots []*Slot) []*Slot {
		return slots[:0]
	})
}

// Find returns the slot with the given track ID from the active list, or
// nil. Lock-free: safe to call from any goroutine, including concurrently
// with mutations (it will see either the pre- or post-mutation list, never
// a torn one).
func (r *Registry) Find(trackID int32) *Slot {
	for _, s := range r.Active() {
		if s.TrackID == trackID {
			return s
		}
	}
	return nil
}

// TotalFrames is max(offset + effective) across the active list, or 0 if
// the registry is empty.
func (r *Registry) TotalFrames() int64 {
	var total int64
	for _, s := range r.Active() {
		if end := s.EndFrame(); end > total {
			total = end
		}
	}
	return total
}
