package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ones(n int) []float64 {
	buf := make([]float64, n)
	for i := range buf {
		buf[i] = 1
	}
	return buf
}

func TestWindowShapes(t *testing.T) {
	cases := []struct {
		name  string
		fn    Function
		first float64
		mid   float64
	}{
		{"rectangle", Rectangle, 1, 1},
		{"hann", Hann, 0, 1},
		{"hamming", Hamming, 1 - 2*(21.0/46.0), 1},
		{"bartlett", Bartlett, 0, 1},
		{"blackman", Blackman, 0, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buf := ones(64)
			tc.fn(buf)
			assert.InDelta(t, tc.first, buf[0], 1e-9)
			assert.InDelta(t, tc.mid, buf[32], 1e-9)
			for _, v := range buf {
				assert.GreaterOrEqual(t, v, -1e-12)
				assert.LessOrEqual(t, v, 1+1e-12)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	fn, err := Lookup("")
	require.NoError(t, err)
	buf := ones(4)
	fn(buf)
	assert.Equal(t, ones(4), buf)

	_, err = Lookup("Hann")
	assert.NoError(t, err)

	_, err = Lookup("kaiser")
	assert.Error(t, err)

	assert.Equal(t, []string{"bartlett", "blackman", "hamming", "hann", "rectangle"}, Names())
}
