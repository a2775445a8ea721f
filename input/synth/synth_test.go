package synth

import (
	"context"
	"math"
	"testing"

	"github.com/noriah/whisker/input"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDevice(t *testing.T) {
	cases := []struct {
		in   string
		want Device
		err  bool
	}{
		{"tone", Device{Kind: Tone, Freq: 1000, Amplitude: 0.8}, false},
		{"tone:440:0.5", Device{Kind: Tone, Freq: 440, Amplitude: 0.5}, false},
		{"noise:0.1", Device{Kind: Noise, Amplitude: 0.1}, false},
		{"silence", Device{Kind: Silence}, false},
		{"tone:abc", Device{}, true},
		{"square", Device{}, true},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseDevice(tc.in)
			if tc.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)

			back, err := ParseDevice(got.String())
			require.NoError(t, err)
			assert.Equal(t, got, back)
		})
	}
}

func TestToneSamples(t *testing.T) {
	g, err := NewGenerator(Device{Kind: Tone, Freq: 2000, Amplitude: 1}, 8000)
	require.NoError(t, err)

	// A quarter of the sample rate walks the sine in quarter turns.
	want := []float64{0, 1, 0, -1, 0}
	for _, w := range want {
		v, err := g.Acquire()
		require.NoError(t, err)
		assert.InDelta(t, w, v, 1e-9)
	}
}

func TestNoiseIsBounded(t *testing.T) {
	g, err := NewGenerator(Device{Kind: Noise, Amplitude: 0.1}, 8000)
	require.NoError(t, err)

	var sum float64
	for i := 0; i < 4096; i++ {
		v, err := g.Acquire()
		require.NoError(t, err)
		sum += v
	}

	assert.Less(t, math.Abs(sum/4096), 0.05)
}

func TestRejectsBadTone(t *testing.T) {
	_, err := NewGenerator(Device{Kind: Tone, Freq: 5000, Amplitude: 1}, 8000)
	assert.Error(t, err)

	_, err = NewGenerator(Device{Kind: Silence}, 0)
	assert.Error(t, err)
}

func TestCancelledSession(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := Backend{}.Start(ctx, inputConfig(Device{Kind: Silence}))
	require.NoError(t, err)

	_, err = s.Acquire()
	assert.ErrorIs(t, err, context.Canceled)
}

func inputConfig(d Device) input.SessionConfig {
	return input.SessionConfig{Device: d, SampleRate: 8000}
}
