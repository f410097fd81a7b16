package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromMillisRoundTrip(t *testing.T) {
	for _, ms := range []int64{0, 1000, 2000, 5000, 60000} {
		assert.Equal(t, ms, ToMillis(FromMillis(ms)), "round trip for %d ms", ms)
	}
}

func TestFromMillisNegativeClamped(t *testing.T) {
	assert.Equal(t, int64(0), FromMillis(-500))
	assert.Equal(t, int64(0), ToMillis(-500))
}

func TestFromMillisTruncates(t *testing.T) {
	// 1 ms is less than a full frame boundary in some directions; verify truncation, not rounding.
	assert.Equal(t, int64(44), FromMillis(1))
	assert.Equal(t, int64(44100), FromMillis(1000))
}
