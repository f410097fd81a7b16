package pcm

import (
	"encoding/binary"
	"io"

	"github.com/CLCaron/nightjar-sub000/internal/frame"
)

// headerSize is the canonical WAV header this engine always writes: RIFF,
// WAVE, a 16-byte fmt chunk, and the data chunk tag with no extra chunks.
const headerSize = 44

// riffSizeOffset and dataSizeOffset are the byte offsets patched once a
// recording finishes and the true file size is known.
const (
	riffSizeOffset = 4
	dataSizeOffset = 40
)

func encodeU32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

type fmtInfo struct {
	channels      uint16
	sampleRate    uint32
	bitsPerSample uint16
}

// writePlaceholderHeader writes a 44-byte canonical mono PCM16 header with
// the size fields zeroed, to be patched once total length is known.
func writePlaceholderHeader(w io.Writer) error {
	var hdr [headerSize]byte
	copy(hdr[0:4], "RIFF")
	// bytes 4:8 (RIFF size) left zero.
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16) // fmt chunk size
	binary.LittleEndian.PutUint16(hdr[20:22], 1)  // PCM
	binary.LittleEndian.PutUint16(hdr[22:24], frame.CaptureChannels)
	binary.LittleEndian.PutUint32(hdr[24:28], frame.SampleRate)
	byteRate := frame.SampleRate * frame.CaptureChannels * frame.BytesPerSample
	binary.LittleEndian.PutUint32(hdr[28:32], uint32(byteRate))
	blockAlign := frame.CaptureChannels * frame.BytesPerSample
	binary.LittleEndian.PutUint16(hdr[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(hdr[34:36], frame.BitsPerSample)
	copy(hdr[36:40], "data")
	// bytes 40:44 (data size) left zero.
	_, err := w.Write(hdr[:])
	return err
}

// parseChunks walks a RIFF/WAVE byte slice and locates the fmt and data
// chunks. Chunks other than fmt/data are skipped by even-aligned length
// advance, per the RIFF spec (odd-length chunks are padded by one byte).
func parseChunks(data []byte) (info fmtInfo, dataOffset int64, dataSize int64, err *OpenError) {
	if len(data) < 12 {
		return fmtInfo{}, 0, 0, &OpenError{Kind: TooSmall}
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return fmtInfo{}, 0, 0, &OpenError{Kind: BadHeader}
	}

	haveFmt := false
	haveData := false
	pos := int64(12)
	for pos+8 <= int64(len(data)) {
		id := string(data[pos : pos+4])
		size := int64(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8

		switch id {
		case "fmt ":
			if body+16 > int64(len(data)) {
				return fmtInfo{}, 0, 0, &OpenError{Kind: BadHeader}
			}
			info.channels = binary.LittleEndian.Uint16(data[body+2 : body+4])
			info.sampleRate = binary.LittleEndian.Uint32(data[body+4 : body+8])
			info.bitsPerSample = binary.LittleEndian.Uint16(data[body+14 : body+16])
			haveFmt = true
		case "data":
			dataOffset = body
			dataSize = size
			if dataOffset+dataSize > int64(len(data)) {
				dataSize = int64(len(data)) - dataOffset
			}
			haveData = true
		}

		advance := size
		if advance%2 == 1 {
			advance++ // chunks are word-aligned; odd sizes carry a pad byte
		}
		pos = body + advance
	}

	if !haveFmt {
		return fmtInfo{}, 0, 0, &OpenError{Kind: BadHeader}
	}
	if !haveData {
		return fmtInfo{}, 0, 0, &OpenError{Kind: NoDataChunk}
	}
	return info, dataOffset, dataSize, nil
}
