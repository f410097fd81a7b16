// Package playback implements the output half of the real-time audio path:
// the driver callback that renders the mixer into the device buffer,
// advances the transport, and handles loop wraparound, end-of-timeline
// stop, and device-loss recovery.
package playback

import (
	"log"
	"sync"
	"sync/atomic"

	"github.com/CLCaron/nightjar-sub000/internal/driver"
	"github.com/CLCaron/nightjar-sub000/internal/mixer"
	"github.com/CLCaron/nightjar-sub000/internal/transport"
)

// Stream owns the output driver stream and holds (never owns) references
// to the mixer and transport it renders from.
type Stream struct {
	drv       driver.Driver
	transport *transport.Transport
	mixer     *mixer.Mixer

	mu     sync.Mutex
	output driver.OutputStream
	broken atomic.Bool
}

// New returns a playback stream bound to the given mixer and transport, not
// yet started.
func New(drv driver.Driver, t *transport.Transport, m *mixer.Mixer) *Stream {
	return &Stream{drv: drv, transport: t, mixer: m}
}

// Start opens and starts the output stream. Calling it while a stream is
// already running does nothing; it can be called again after a failed
// device-loss recovery has left no stream open.
func (s *Stream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.output != nil {
		return nil
	}
	return s.startLocked()
}

func (s *Stream) startLocked() error {
	out, err := s.drv.OpenOutputStream(s.onData, s.onError)
	if err != nil {
		return err
	}
	if out.FramesPerBurst() > mixer.MaxCallbackFrames {
		out.Stop()
		return errBurstTooLarge
	}
	if err := out.Start(); err != nil {
		return err
	}
	s.output = out
	s.broken.Store(false)
	return nil
}

// Stop halts the output stream.
func (s *Stream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.output == nil {
		return nil
	}
	err := s.output.Stop()
	s.output = nil
	return err
}

// Healthy reports whether the stream is free of an unrecovered device-loss
// error.
func (s *Stream) Healthy() bool {
	return !s.broken.Load()
}

// onData is the real-time output callback: reads the transport snapshot,
// renders the mix, advances the playhead, and handles loop wrap / EOT stop.
// It performs no I/O and takes no lock.
func (s *Stream) onData(buf []float32, n int) {
	snap := s.transport.Snapshot()
	if !snap.Playing {
		for i := range buf {
			buf[i] = 0
		}
		return
	}

	s.mixer.Render(buf, snap.Pos)

	next := snap.Pos + int64(n)
	if snap.HasLoop() && next >= snap.LoopEnd {
		next = snap.LoopStart
		s.transport.IncrementLoopResetCount()
	}

	if !snap.Recording && next >= snap.Total {
		s.transport.SetPlaying(false)
		s.transport.SetPos(0)
		return
	}
	s.transport.SetPos(next)
}

// onError handles device loss: marks the stream broken and attempts an
// immediate reopen with identical parameters. If the reopen fails too, the
// stream stays broken and subsequent callers observe silence via Healthy.
func (s *Stream) onError(err error) {
	log.Printf("playback: device error, attempting reopen: %v", err)
	s.broken.Store(true)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.output = nil
	if rerr := s.startLocked(); rerr != nil {
		log.Printf("playback: device reopen failed: %v", rerr)
	}
}

var errBurstTooLarge = burstTooLargeError{}

type burstTooLargeError struct{}

func (burstTooLargeError) Error() string {
	return "playback: driver frames-per-burst exceeds mixer.MaxCallbackFrames"
}
