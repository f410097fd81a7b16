// Package frame holds the fixed audio format constants shared by every
// other package in the engine and the small integer conversions between
// milliseconds and frames that the control plane uses at its boundary.
package frame

// Fixed audio format. The engine never resamples or renegotiates these;
// a track recorded or rendered at any other rate is out of scope.
const (
	SampleRate      = 44100
	CaptureChannels = 1
	OutputChannels  = 2
	BitsPerSample   = 16
	BytesPerSample  = BitsPerSample / 8
)

// FromMillis converts a millisecond duration to a frame count, truncating.
// Negative inputs are clamped to 0 — callers at the control-plane boundary
// are never allowed to push a negative duration past this point.
func FromMillis(ms int64) int64 {
	if ms < 0 {
		return 0
	}
	return ms * SampleRate / 1000
}

// ToMillis converts a frame count to milliseconds, truncating.
func ToMillis(frames int64) int64 {
	if frames < 0 {
		return 0
	}
	return frames * 1000 / SampleRate
}
