package main

import (
	"github.com/noriah/whisker/config"
	"github.com/pkg/errors"
)

// flags holds command line overrides. Zero values leave the file setting
// alone.
type flags struct {
	// configPath is the YAML file to load
	configPath string
	// backend is the backend name from list-backends
	backend string
	// device is the device name from list-devices
	device string
	// sampleRate is requested from streamed backends
	sampleRate float64
	// frameSize is the number of samples per frame
	frameSize int
	// frameRate caps frames per second
	frameRate int
	// threshold overrides the match threshold
	threshold float64
	// logLevel is one of debug, info, warn, error
	logLevel string
	// metricsAddr serves prometheus metrics
	metricsAddr string
	// display draws the terminal ui
	display bool
	// raw prints each frame to stdout
	raw bool
	// rawBins is how many bins raw prints
	rawBins int
}

func newFlags() flags {
	return flags{rawBins: 32}
}

// apply loads the file, if any, and lays the flags over it.
func (f *flags) apply() (config.Config, error) {
	cfg := config.NewZeroConfig()

	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return cfg, err
		}
	}

	if f.backend != "" {
		cfg.Input.Backend = f.backend
	}

	if f.device != "" {
		cfg.Input.Device = f.device
	}

	if f.sampleRate > 0 {
		cfg.Input.SampleRate = f.sampleRate
	}

	if f.frameSize > 0 {
		cfg.Pipeline.FrameSize = f.frameSize
	}

	if f.frameRate > 0 {
		cfg.Pipeline.FrameRate = f.frameRate
	}

	if f.threshold != 0 {
		cfg.Detector.MatchThreshold = f.threshold
	}

	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}

	if f.metricsAddr != "" {
		cfg.Metrics.Addr = f.metricsAddr
	}

	if f.display {
		cfg.Display.Enabled = true
	}

	if f.raw && cfg.Display.Enabled {
		return cfg, errors.New("raw output and display are exclusive")
	}

	if f.rawBins < 1 {
		return cfg, errors.New("raw bins must be positive")
	}

	return cfg, cfg.Sanitize()
}
