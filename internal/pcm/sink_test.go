package pcm

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CLCaron/nightjar-sub000/internal/frame"
	"github.com/CLCaron/nightjar-sub000/internal/ring"
)

func TestSinkWritesHeaderAndPatchesSizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	sink, err := Open(path)
	require.NoError(t, err)

	r := ring.New(8192)
	sink.Start(r)

	// A 440 Hz sine at amplitude 0.5, one tenth of a second.
	const n = frame.SampleRate / 10
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = 0.5 * float32(math.Sin(2*math.Pi*440*float64(i)/frame.SampleRate))
	}
	r.Write(samples)

	// Give the consumer goroutine a moment to drain before stopping.
	deadline := time.Now().Add(2 * time.Second)
	for r.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	require.NoError(t, sink.Stop())

	assert.EqualValues(t, n*frame.BytesPerSample, sink.TotalBytes())

	src, err := Open(path)
	require.NoError(t, err)
	defer src.Close()

	assert.EqualValues(t, n, src.TotalFrames())
	out := make([]float32, n)
	src.ReadFrames(out, 0)
	for i := range out {
		assert.InDelta(t, samples[i], out[i], 1.0/32767.0+1e-4)
	}
}

func TestSinkClampsOutOfRangeSamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clamp.wav")
	sink, err := Open(path)
	require.NoError(t, err)

	r := ring.New(16)
	sink.Start(r)
	r.Write([]float32{2.0, -2.0, 0})

	deadline := time.Now().Add(2 * time.Second)
	for r.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	require.NoError(t, sink.Stop())

	src, err := Open(path)
	require.NoError(t, err)
	defer src.Close()

	out := make([]float32, 3)
	src.ReadFrames(out, 0)
	assert.InDelta(t, 1.0, out[0], 1.0/32767.0)
	assert.InDelta(t, -1.0, out[1], 1.0/32767.0)
	assert.InDelta(t, 0.0, out[2], 1.0/32767.0)
}

func TestSinkDurationMillis(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dur.wav")
	sink, err := Open(path)
	require.NoError(t, err)

	r := ring.New(frame.SampleRate * 2)
	sink.Start(r)

	samples := make([]float32, frame.SampleRate) // exactly 1 second
	r.Write(samples)

	deadline := time.Now().Add(2 * time.Second)
	for r.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	require.NoError(t, sink.Stop())

	assert.InDelta(t, 1000, sink.DurationMillis(), 20)
}
