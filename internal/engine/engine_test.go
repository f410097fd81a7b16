package engine

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CLCaron/nightjar-sub000/internal/driver/fake"
	"github.com/CLCaron/nightjar-sub000/internal/frame"
)

func writeConstantWAV(t *testing.T, nFrames int64, value float32) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "const.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	var hdr [44]byte
	copy(hdr[0:4], "RIFF")
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], 1)
	binary.LittleEndian.PutUint16(hdr[22:24], 1)
	binary.LittleEndian.PutUint32(hdr[24:28], frame.SampleRate)
	binary.LittleEndian.PutUint32(hdr[28:32], frame.SampleRate*2)
	binary.LittleEndian.PutUint16(hdr[32:34], 2)
	binary.LittleEndian.PutUint16(hdr[34:36], 16)
	copy(hdr[36:40], "data")
	dataSize := uint32(nFrames * 2)
	binary.LittleEndian.PutUint32(hdr[40:44], dataSize)
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(44+nFrames*2-8))
	require.NoError(t, binary.Write(f, binary.LittleEndian, hdr[:]))

	sample := int16(value * 32767)
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, uint16(sample))
	for i := int64(0); i < nFrames; i++ {
		_, err := f.Write(buf)
		require.NoError(t, err)
	}
	return path
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	drv := fake.New()
	eng := New(drv)
	require.NoError(t, eng.Initialize())
	t.Cleanup(eng.Shutdown)
	return eng
}

func TestAddTrackRecomputesTotal(t *testing.T) {
	eng := newTestEngine(t)
	path := writeConstantWAV(t, 44100, 0.1) // 1000ms

	ok := eng.AddTrack(1, path, 500, 0, 0, 1.0, false)
	require.True(t, ok)
	assert.EqualValues(t, 1500, eng.TotalDurationMillis())
}

func TestAddTrackMissingFileReturnsFalse(t *testing.T) {
	eng := newTestEngine(t)
	ok := eng.AddTrack(1, "/nonexistent/path.wav", 0, 0, 0, 1.0, false)
	assert.False(t, ok)
	assert.EqualValues(t, 0, eng.TotalDurationMillis())
}

func TestRemoveAllTracksResetsTransport(t *testing.T) {
	eng := newTestEngine(t)
	path := writeConstantWAV(t, 44100, 0.1)
	require.True(t, eng.AddTrack(1, path, 0, 0, 0, 1.0, false))
	eng.Play()

	eng.RemoveAllTracks()
	assert.EqualValues(t, 0, eng.TotalDurationMillis())
	assert.EqualValues(t, 0, eng.PositionMillis())
	assert.False(t, eng.IsPlaying())
}

func TestPlaySnapsToZeroWhenAtEndWithNoLoop(t *testing.T) {
	eng := newTestEngine(t)
	path := writeConstantWAV(t, 44100, 0.1)
	require.True(t, eng.AddTrack(1, path, 0, 0, 0, 1.0, false))
	eng.SeekToMillis(1000) // == total

	eng.Play()
	assert.EqualValues(t, 0, eng.PositionMillis())
	assert.True(t, eng.IsPlaying())
}

func TestPlaySnapsToLoopStartWhenAtEndWithLoop(t *testing.T) {
	eng := newTestEngine(t)
	path := writeConstantWAV(t, 44100, 0.1)
	require.True(t, eng.AddTrack(1, path, 0, 0, 0, 1.0, false))
	eng.SetLoopRegion(200, 800)
	eng.SeekToMillis(1000)

	eng.Play()
	assert.EqualValues(t, 200, eng.PositionMillis())
}

func TestSeekClampsToTotal(t *testing.T) {
	eng := newTestEngine(t)
	path := writeConstantWAV(t, 44100, 0.1)
	require.True(t, eng.AddTrack(1, path, 0, 0, 0, 1.0, false))

	eng.SeekToMillis(5000)
	assert.EqualValues(t, 1000, eng.PositionMillis())
}

func TestSetTrackVolumeAndMuted(t *testing.T) {
	eng := newTestEngine(t)
	path := writeConstantWAV(t, 44100, 0.1)
	require.True(t, eng.AddTrack(1, path, 0, 0, 0, 1.0, false))

	eng.SetTrackVolume(1, 0.5)
	eng.SetTrackMuted(1, true)

	slot := eng.mixer.Registry().Find(1)
	require.NotNil(t, slot)
	assert.InDelta(t, 0.5, slot.Volume(), 1e-6)
	assert.True(t, slot.Muted())
}

func TestStartRecordingThenAbandonedAwaitLeavesPrimedState(t *testing.T) {
	eng := newTestEngine(t)
	path := filepath.Join(t.TempDir(), "take.wav")

	require.NoError(t, eng.StartRecording(path))

	// The fake driver never delivers a capture callback on its own, so the
	// pipeline never reports hot; await must time out rather than hang.
	ok := eng.AwaitFirstBuffer(20)
	assert.False(t, ok)

	// TimeoutAwaitingFirstBuffer leaves recording in the primed state; the
	// caller must still call StopRecording to clean up, which reports no
	// duration because the write gate was never opened.
	duration := eng.StopRecording()
	assert.EqualValues(t, -1, duration)
}

func TestStartRecordingRejectsSecondConcurrentStart(t *testing.T) {
	eng := newTestEngine(t)
	path := filepath.Join(t.TempDir(), "take.wav")

	require.NoError(t, eng.StartRecording(path))
	err := eng.StartRecording(filepath.Join(t.TempDir(), "other.wav"))
	assert.Error(t, err)

	eng.StopRecording()
}

func TestStopRecordingWithNoActiveRecordingReturnsNegativeOne(t *testing.T) {
	eng := newTestEngine(t)
	assert.EqualValues(t, -1, eng.StopRecording())
}
