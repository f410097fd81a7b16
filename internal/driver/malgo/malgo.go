// Package malgo binds the driver.Driver abstraction to a real duplex audio
// device via the gen2brain/malgo bindings to miniaudio. It owns the malgo
// context and device handles; nothing about malgo leaks into driver.Driver.
package malgo

import (
	"encoding/binary"
	"fmt"
	"math"

	gomalgo "github.com/gen2brain/malgo"

	"github.com/CLCaron/nightjar-sub000/internal/driver"
	"github.com/CLCaron/nightjar-sub000/internal/frame"
)

// periodMillis is the requested device callback period. Lower values cut
// latency at the cost of higher callback frequency and overrun risk; this
// matches the low-latency target called for by a duplex instrument/recorder
// driver.
const periodMillis = 10

// Backend is a driver.Driver backed by a single malgo context shared by its
// output and input streams.
type Backend struct {
	ctx *gomalgo.AllocatedContext
}

// Open initializes the malgo context. Returns a *Backend implementing
// driver.Driver.
func Open() (*Backend, error) {
	ctx, err := gomalgo.InitContext(nil, gomalgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("malgo: init context: %w", err)
	}
	return &Backend{ctx: ctx}, nil
}

// Close tears down the context. Streams opened from it must already be
// stopped.
func (b *Backend) Close() error {
	if b.ctx == nil {
		return nil
	}
	err := b.ctx.Uninit()
	b.ctx.Free()
	b.ctx = nil
	return err
}

// OpenOutputStream configures and initializes a stereo f32 playback device
// at frame.SampleRate. The device is not started; callers must call Start.
func (b *Backend) OpenOutputStream(onData driver.OutputCallback, onError driver.ErrorCallback) (driver.OutputStream, error) {
	cfg := gomalgo.DefaultDeviceConfig(gomalgo.Playback)
	cfg.Playback.Format = gomalgo.FormatF32
	cfg.Playback.Channels = frame.OutputChannels
	cfg.SampleRate = frame.SampleRate
	cfg.PeriodSizeInMilliseconds = periodMillis

	scratch := make([]float32, 0, 8192*frame.OutputChannels)
	onSend := func(pOutput, _ []byte, frameCount uint32) {
		n := int(frameCount)
		buf := scratch[:n*frame.OutputChannels]
		onData(buf, n)
		for i, v := range buf {
			binary.LittleEndian.PutUint32(pOutput[i*4:], math.Float32bits(v))
		}
	}

	callbacks := gomalgo.DeviceCallbacks{
		Data: onSend,
		Stop: func() {
			if onError != nil {
				onError(fmt.Errorf("malgo: output device stopped"))
			}
		},
	}

	dev, err := gomalgo.InitDevice(b.ctx.Context, cfg, callbacks)
	if err != nil {
		return nil, fmt.Errorf("malgo: init output device: %w", err)
	}
	return &outputStream{dev: dev}, nil
}

// OpenInputStream configures and initializes a mono f32 capture device at
// frame.SampleRate. The device is not started; callers must call Start.
func (b *Backend) OpenInputStream(onData driver.InputCallback, onError driver.ErrorCallback) (driver.InputStream, error) {
	cfg := gomalgo.DefaultDeviceConfig(gomalgo.Capture)
	cfg.Capture.Format = gomalgo.FormatF32
	cfg.Capture.Channels = frame.CaptureChannels
	cfg.SampleRate = frame.SampleRate
	cfg.PeriodSizeInMilliseconds = periodMillis

	scratch := make([]float32, 0, 8192*frame.CaptureChannels)
	onRecv := func(_, pInput []byte, frameCount uint32) {
		n := int(frameCount)
		buf := scratch[:n*frame.CaptureChannels]
		for i := range buf {
			buf[i] = math.Float32frombits(binary.LittleEndian.Uint32(pInput[i*4:]))
		}
		onData(buf, n)
	}

	callbacks := gomalgo.DeviceCallbacks{
		Data: onRecv,
		Stop: func() {
			if onError != nil {
				onError(fmt.Errorf("malgo: input device stopped"))
			}
		},
	}

	dev, err := gomalgo.InitDevice(b.ctx.Context, cfg, callbacks)
	if err != nil {
		return nil, fmt.Errorf("malgo: init input device: %w", err)
	}
	return &inputStream{dev: dev}, nil
}

type outputStream struct {
	dev *gomalgo.Device
}

func (s *outputStream) Start() error { return s.dev.Start() }

func (s *outputStream) Stop() error {
	if err := s.dev.Stop(); err != nil {
		return err
	}
	s.dev.Uninit()
	return nil
}

func (s *outputStream) FramesPerBurst() int {
	return int(s.dev.SampleRate()) * periodMillis / 1000
}

type inputStream struct {
	dev *gomalgo.Device
}

func (s *inputStream) Start() error { return s.dev.Start() }

func (s *inputStream) Stop() error {
	if err := s.dev.Stop(); err != nil {
		return err
	}
	s.dev.Uninit()
	return nil
}

func (s *inputStream) FramesPerBurst() int {
	return int(s.dev.SampleRate()) * periodMillis / 1000
}
