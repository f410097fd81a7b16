package pcm

import (
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/CLCaron/nightjar-sub000/internal/frame"
	"github.com/CLCaron/nightjar-sub000/internal/ring"
)

// sinkChunkSamples is the maximum number of samples drained from the ring
// per consumer-thread iteration, held on the stack rather than heap.
const sinkChunkSamples = 4096

// sinkIdleSleep is how long the consumer thread sleeps when the ring is
// empty, to avoid busy-spinning. It deliberately uses a sleep rather than a
// condition variable so the producer side never has to signal a waiter.
const sinkIdleSleep = 3 * time.Millisecond

// Sink is a WAV writer with a dedicated consumer goroutine that drains a
// ring buffer to disk. One Sink is created per recording.
type Sink struct {
	file       *os.File
	totalBytes atomic.Int64
	running    atomic.Bool
	wg         sync.WaitGroup
	writeErr   atomic.Value // stores error
}

// Open creates path and writes the 44-byte placeholder header.
func Open(path string) (*Sink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if err := writePlaceholderHeader(f); err != nil {
		f.Close()
		return nil, err
	}
	return &Sink{file: f}, nil
}

// Start spawns the consumer goroutine that drains r to disk. It must be
// called at most once per Sink.
func (s *Sink) Start(r *ring.Buffer) {
	s.running.Store(true)
	s.wg.Add(1)
	go s.consume(r)
}

func (s *Sink) consume(r *ring.Buffer) {
	defer s.wg.Done()

	floatChunk := make([]float32, sinkChunkSamples)
	byteChunk := make([]byte, sinkChunkSamples*frame.BytesPerSample)

	for s.running.Load() {
		n := r.Read(floatChunk)
		if n == 0 {
			time.Sleep(sinkIdleSleep)
			continue
		}
		s.writeSamples(floatChunk[:n], byteChunk)
	}

	// Drain whatever arrived between the last poll and the stop signal.
	for {
		n := r.Read(floatChunk)
		if n == 0 {
			return
		}
		s.writeSamples(floatChunk[:n], byteChunk)
	}
}

func (s *Sink) writeSamples(samples []float32, scratch []byte) {
	for i, f := range samples {
		if f > 1 {
			f = 1
		} else if f < -1 {
			f = -1
		}
		v := int16(roundFloat(f * 32767))
		scratch[i*2] = byte(v)
		scratch[i*2+1] = byte(v >> 8)
	}
	n := len(samples) * frame.BytesPerSample
	written, err := s.file.Write(scratch[:n])
	s.totalBytes.Add(int64(written))
	if err != nil {
		s.writeErr.Store(err)
	}
}

func roundFloat(v float32) int32 {
	if v >= 0 {
		return int32(v + 0.5)
	}
	return int32(v - 0.5)
}

// TotalBytes returns the number of PCM bytes written to disk so far.
func (s *Sink) TotalBytes() int64 {
	return s.totalBytes.Load()
}

// DurationMillis returns the duration, in milliseconds, represented by the
// bytes written so far.
func (s *Sink) DurationMillis() int64 {
	bytes := s.totalBytes.Load()
	return bytes * 1000 / int64(frame.SampleRate*frame.CaptureChannels*frame.BytesPerSample)
}

// Stop signals the consumer goroutine, joins it, patches the header with
// the final sizes, and closes the file. Safe to call once.
func (s *Sink) Stop() error {
	s.running.Store(false)
	s.wg.Wait()

	totalBytes := s.totalBytes.Load()
	if err := s.patchHeader(totalBytes); err != nil {
		s.file.Close()
		return err
	}

	closeErr := s.file.Close()
	if writeErr, ok := s.writeErr.Load().(error); ok && writeErr != nil {
		return writeErr
	}
	return closeErr
}

func (s *Sink) patchHeader(dataBytes int64) error {
	if _, err := s.file.WriteAt(encodeU32(uint32(headerSize+dataBytes-8)), riffSizeOffset); err != nil {
		return err
	}
	if _, err := s.file.WriteAt(encodeU32(uint32(dataBytes)), dataSizeOffset); err != nil {
		return err
	}
	return nil
}
