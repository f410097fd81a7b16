// Package capture implements the input half of the real-time audio path:
// the driver callback that feeds captured samples into a ring buffer, and
// the three-phase start/await/gate/stop protocol the engine facade drives
// for overdub recording.
package capture

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/CLCaron/nightjar-sub000/internal/driver"
	"github.com/CLCaron/nightjar-sub000/internal/pcm"
	"github.com/CLCaron/nightjar-sub000/internal/ring"
)

// Phase names the capture state machine's states. Zero value is Idle.
type Phase int

const (
	Idle Phase = iota
	Opening
	Primed
	Hot
	Writing
)

// ringCapacity is chosen generously (~3s at 44.1kHz mono) so a sink stall
// of several tens of milliseconds never drops samples; a longer stall
// drops silently rather than blocking the capture callback.
const ringCapacity = 1 << 17

// pollInterval is await_first_buffer's polling granularity.
const pollInterval = time.Millisecond

// Stream owns the input driver stream, the producer side of the capture
// ring, and the Idle->Opening->Primed->Hot->Writing->Idle state machine
// described for overdub recording.
type Stream struct {
	drv      driver.Driver
	input    driver.InputStream
	sink     *pcm.Sink
	ringBuf  *ring.Buffer
	phase    atomic.Int32
	writing  atomic.Bool
	peak     atomic.Uint32
	deviceOK atomic.Bool
}

// New returns a capture stream bound to drv, not yet started.
func New(drv driver.Driver) *Stream {
	s := &Stream{drv: drv}
	s.deviceOK.Store(true)
	return s
}

func (s *Stream) setPhase(p Phase) { s.phase.Store(int32(p)) }

// CurrentPhase reports the state-machine phase for diagnostics/tests.
func (s *Stream) CurrentPhase() Phase {
	return Phase(s.phase.Load())
}

// Start opens the output file and the input driver stream and transitions
// Idle -> Opening -> Primed. Samples begin flowing into the ring
// immediately but nothing reaches disk until OpenWriteGate is called, which
// discards what accumulated before it and only then starts the sink.
func (s *Stream) Start(path string) error {
	if s.CurrentPhase() != Idle {
		return fmt.Errorf("capture: start called while not idle")
	}
	s.setPhase(Opening)

	sink, err := pcm.Open(path)
	if err != nil {
		s.setPhase(Idle)
		return fmt.Errorf("capture: open sink: %w", err)
	}
	s.sink = sink
	s.ringBuf = ring.New(ringCapacity)
	s.writing.Store(false)

	input, err := s.drv.OpenInputStream(s.onData, s.onError)
	if err != nil {
		s.sink.Stop()
		s.sink = nil
		s.setPhase(Idle)
		return fmt.Errorf("capture: open input stream: %w", err)
	}
	s.input = input

	if err := s.input.Start(); err != nil {
		s.input.Stop()
		s.sink.Stop()
		s.sink = nil
		s.input = nil
		s.setPhase(Idle)
		return fmt.Errorf("capture: start input stream: %w", err)
	}

	s.setPhase(Primed)
	return nil
}

// onData is the real-time input callback: peak-meter update, lock-free
// ring write, and the Primed->Hot transition on first invocation. It never
// allocates, locks, or performs I/O — draining to disk happens on the
// sink's own consumer goroutine, which OpenWriteGate starts.
func (s *Stream) onData(buf []float32, n int) {
	var peak float32
	for _, v := range buf[:n] {
		if a := float32(math.Abs(float64(v))); a > peak {
			peak = a
		}
	}
	s.peak.Store(math.Float32bits(peak))

	s.ringBuf.Write(buf[:n])

	if s.CurrentPhase() == Primed {
		s.setPhase(Hot)
	}
}

func (s *Stream) onError(err error) {
	s.deviceOK.Store(false)
}

// AwaitFirstBuffer polls for the Primed->Hot transition, the only blocking
// operation in the capture API. Returns true if the pipeline went hot
// within timeout.
func (s *Stream) AwaitFirstBuffer(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if s.CurrentPhase() == Hot {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(pollInterval)
	}
}

// OpenWriteGate discards the samples buffered before the gate, starts the
// sink draining the ring to disk, and transitions Hot -> Writing. From this
// instant, captured samples are persisted.
func (s *Stream) OpenWriteGate() {
	if s.CurrentPhase() != Hot {
		return
	}
	// The sink has not started yet, so this goroutine is still the ring's
	// only reader.
	discard := make([]float32, 4096)
	for s.ringBuf.Read(discard) > 0 {
	}
	s.sink.Start(s.ringBuf)
	s.setPhase(Writing)
}

// Stop halts capture: stops the sink (patching the WAV header), closes the
// input stream, and returns to Idle. Returns the recorded duration in
// milliseconds, or -1 if the write gate was never opened.
func (s *Stream) Stop() int64 {
	phase := s.CurrentPhase()
	if phase == Idle {
		return -1
	}

	var durationMs int64 = -1
	if phase == Writing {
		if err := s.sink.Stop(); err == nil {
			durationMs = s.sink.DurationMillis()
		}
	} else if s.sink != nil {
		s.sink.Stop()
	}

	if s.input != nil {
		s.input.Stop()
		s.input = nil
	}
	s.sink = nil
	s.ringBuf = nil
	s.setPhase(Idle)
	return durationMs
}

// LatestPeakAmplitude returns the most recent callback's peak |sample|, in
// [0, +inf) nominal [0,1].
func (s *Stream) LatestPeakAmplitude() float32 {
	return math.Float32frombits(s.peak.Load())
}

// RecordedDurationMillis reports the sink's duration so far, or 0 if no
// recording is active.
func (s *Stream) RecordedDurationMillis() int64 {
	if s.sink == nil {
		return 0
	}
	return s.sink.DurationMillis()
}

// DeviceHealthy reports true until the input stream's error callback
// fires, and false from then on.
func (s *Stream) DeviceHealthy() bool {
	return s.deviceOK.Load()
}
