// Package fake provides an in-process driver.Driver with no hardware
// dependency, used by engine, playback, and capture tests to drive
// callbacks deterministically from the test goroutine.
package fake

import (
	"github.com/CLCaron/nightjar-sub000/internal/driver"
)

// Driver is a driver.Driver whose streams are driven by explicit calls to
// Pump rather than a real device thread.
type Driver struct {
	closed bool
}

// New returns a ready-to-use fake driver.
func New() *Driver {
	return &Driver{}
}

func (d *Driver) OpenOutputStream(onData driver.OutputCallback, onError driver.ErrorCallback) (driver.OutputStream, error) {
	return &Stream{onOutput: onData, onError: onError, burst: 256}, nil
}

func (d *Driver) OpenInputStream(onData driver.InputCallback, onError driver.ErrorCallback) (driver.InputStream, error) {
	return &Stream{onInput: onData, onError: onError, burst: 256}, nil
}

func (d *Driver) Close() error {
	d.closed = true
	return nil
}

// Stream implements both driver.OutputStream and driver.InputStream. Only
// one of onOutput/onInput is set depending on which Open* call produced it.
type Stream struct {
	onOutput driver.OutputCallback
	onInput  driver.InputCallback
	onError  driver.ErrorCallback
	running  bool
	burst    int
}

func (s *Stream) Start() error {
	s.running = true
	return nil
}

func (s *Stream) Stop() error {
	s.running = false
	return nil
}

func (s *Stream) FramesPerBurst() int {
	return s.burst
}

// SetFramesPerBurst lets a test exercise a non-default burst size.
func (s *Stream) SetFramesPerBurst(n int) {
	s.burst = n
}

// PumpOutput invokes the registered output callback with a fresh zeroed
// stereo buffer of n frames and returns it, as a real driver callback
// would deliver to the device. No-op if the stream isn't running or has no
// output callback registered.
func (s *Stream) PumpOutput(n int) []float32 {
	if !s.running || s.onOutput == nil {
		return nil
	}
	buf := make([]float32, n*2)
	s.onOutput(buf, n)
	return buf
}

// PumpInput delivers samples as a captured input buffer to the registered
// input callback, as a real capture device would.
func (s *Stream) PumpInput(samples []float32) {
	if !s.running || s.onInput == nil {
		return
	}
	s.onInput(samples, len(samples))
}

// Fail invokes the stream's error callback, simulating device loss.
func (s *Stream) Fail(err error) {
	if s.onError != nil {
		s.onError(err)
	}
}
