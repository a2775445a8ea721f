package input_test

import (
	"testing"

	"github.com/noriah/whisker/input"
	"github.com/noriah/whisker/input/synth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthRegistered(t *testing.T) {
	assert.Contains(t, input.GetAllBackendNames(), "synth")
	assert.NotEmpty(t, input.DefaultBackend())
}

func TestGetDeviceParsesFreeForm(t *testing.T) {
	b, err := input.InitBackend("synth")
	require.NoError(t, err)

	d, err := input.GetDevice(b, "tone:440:0.5")
	require.NoError(t, err)
	assert.Equal(t, synth.Device{Kind: synth.Tone, Freq: 440, Amplitude: 0.5}, d)

	def, err := input.GetDevice(b, "")
	require.NoError(t, err)
	assert.Equal(t, "tone:1000:0.8", def.String())
}

func TestInitUnknownBackend(t *testing.T) {
	_, err := input.InitBackend("nope")
	assert.Error(t, err)
}

func TestMonotonicClock(t *testing.T) {
	c := input.NewMonotonicClock()
	a := c.Micros()
	b := c.Micros()
	assert.GreaterOrEqual(t, b, a)
	assert.GreaterOrEqual(t, a, int64(0))
}
