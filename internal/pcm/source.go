// Package pcm implements the two file-backed components of the engine: a
// read-only memory-mapped PCM source for playback, and a placeholder-header
// WAV writer for capture. Both deal exclusively in 16-bit PCM mono WAV at
// frame.SampleRate, per the engine's fixed format.
package pcm

import (
	"encoding/binary"
	"os"

	"github.com/CLCaron/nightjar-sub000/internal/frame"
)

// Source is a read-only, zero-syscall-after-setup view over a mono PCM16
// WAV file's sample frames. It is safe for concurrent ReadFrames calls —
// including from the output callback — for as long as the Source is not
// being closed.
type Source struct {
	file        *os.File
	mapped      []byte // the whole file, mmap'd read-only
	dataOffset  int64  // byte offset of the first PCM sample
	totalFrames int64
}

// Open maps the whole file at path, validates its WAV header, and returns a
// Source ready for random-access reads. The channel count is assumed mono;
// the engine never loads multi-channel source tracks.
func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &OpenError{Kind: NotFound, Path: path, Err: err}
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, &OpenError{Kind: NotFound, Path: path, Err: err}
	}
	if st.Size() < headerSize {
		f.Close()
		return nil, &OpenError{Kind: TooSmall, Path: path}
	}

	mapped, err := mmapFile(f, st.Size())
	if err != nil {
		f.Close()
		return nil, &OpenError{Kind: MapFailed, Path: path, Err: err}
	}

	info, dataOffset, dataSize, openErr := parseChunks(mapped)
	if openErr != nil {
		openErr.Path = path
		munmapFile(mapped)
		f.Close()
		return nil, openErr
	}

	bytesPerFrame := int64(info.bitsPerSample/8) * int64(max16(info.channels, 1))
	if bytesPerFrame <= 0 {
		bytesPerFrame = frame.BytesPerSample
	}

	return &Source{
		file:        f,
		mapped:      mapped,
		dataOffset:  dataOffset,
		totalFrames: dataSize / bytesPerFrame,
	}, nil
}

func max16(a, b uint16) uint16 {
	if a > b {
		return a
	}
	return b
}

// TotalFrames returns the number of mono sample frames in the source.
func (s *Source) TotalFrames() int64 {
	return s.totalFrames
}

// ReadFrames fills out with up to len(out) mono samples starting at
// frameOffset, converting each i16 sample to f32 via sample/32768. It
// returns the number of frames actually read: 0 if frameOffset is at or
// past TotalFrames, otherwise min(len(out), TotalFrames-frameOffset).
func (s *Source) ReadFrames(out []float32, frameOffset int64) int {
	if frameOffset < 0 || frameOffset >= s.totalFrames {
		return 0
	}
	n := int64(len(out))
	if avail := s.totalFrames - frameOffset; n > avail {
		n = avail
	}

	base := s.dataOffset + frameOffset*frame.BytesPerSample
	for i := int64(0); i < n; i++ {
		off := base + i*frame.BytesPerSample
		sample := int16(binary.LittleEndian.Uint16(s.mapped[off : off+2]))
		out[i] = float32(sample) / 32768.0
	}
	return int(n)
}

// Close unmaps the file and releases the underlying descriptor.
func (s *Source) Close() error {
	if s.mapped != nil {
		munmapFile(s.mapped)
		s.mapped = nil
	}
	return s.file.Close()
}
