package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/noriah/whisker/detect"
	"github.com/noriah/whisker/dsp"
	"github.com/noriah/whisker/processor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whisker.yaml")
	require.NoError(t, os.WriteFile(path, []byte("input:\n  backend: parec\n  device: mic\n"), 0o600))

	f := newFlags()
	f.configPath = path
	f.device = "tone:440"
	f.threshold = 0.75
	f.frameSize = 1024

	cfg, err := f.apply()
	require.NoError(t, err)

	assert.Equal(t, "parec", cfg.Input.Backend)
	assert.Equal(t, "tone:440", cfg.Input.Device)
	assert.Equal(t, 0.75, cfg.Detector.MatchThreshold)
	assert.Equal(t, 1024, cfg.Pipeline.FrameSize)
}

func TestFlagsRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*flags)
	}{
		{"raw and display", func(f *flags) { f.raw, f.display = true, true }},
		{"raw bins", func(f *flags) { f.rawBins = 0 }},
		{"frame size", func(f *flags) { f.frameSize = 300 }},
		{"missing file", func(f *flags) { f.configPath = "/nonexistent/whisker.yaml" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFlags()
			tc.mutate(&f)
			_, err := f.apply()
			assert.Error(t, err)
		})
	}
}

func TestRawOutput(t *testing.T) {
	var buf bytes.Buffer
	out := NewRawOutput(&buf, 4)

	out.ObserveFrame(processor.Report{
		Frame:       7,
		Coefficient: 0.5,
		State:       detect.Idle,
		Spectrum:    dsp.Spectrum{0, 0.5, 0.25},
	})

	fields := strings.Fields(strings.TrimSpace(buf.String()))
	require.Len(t, fields, 6)
	assert.Equal(t, "7", fields[0])
	assert.Equal(t, "0.500", fields[1])
	assert.Equal(t, detect.Idle.String(), fields[2])
	assert.Equal(t, "50.000", fields[4])
}
