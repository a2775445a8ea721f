package whisker

import (
	"context"
	"os"
	"time"

	"github.com/noriah/whisker/control"
	"github.com/noriah/whisker/detect"
	"github.com/noriah/whisker/dsp"
	"github.com/noriah/whisker/dsp/window"
	"github.com/noriah/whisker/fft"
	"github.com/noriah/whisker/input"
	"github.com/noriah/whisker/logging"
	"github.com/noriah/whisker/notify"
	"github.com/noriah/whisker/processor"
	"github.com/pkg/errors"
)

// Config holds everything Run needs to build and drive the pipeline.
type Config struct {
	// Backend is the backend name from list-backends
	Backend string
	// Device is the device name from list-devices
	Device string
	// SampleRate is requested from streamed backends
	SampleRate float64
	// OverflowCeiling is the largest sample latency counted towards the rate
	OverflowCeiling time.Duration
	// FrameSize is the number of samples per frame
	FrameSize dsp.Size
	// Transform names the fft backend
	Transform fft.Backend
	// Window is applied to each frame, nil for none
	Window window.Function
	// SuppressedBins are the lowest bins zeroed in every spectrum
	SuppressedBins int
	// FrameRate caps frames per second, 0 runs as fast as input allows
	FrameRate int
	// MatchHistory is how many coefficients the match diagnostics cover
	MatchHistory int
	// BaselineFraction of the peak a bin needs to enter a signature
	BaselineFraction float64
	// Detector timings
	Detector detect.Config

	// Training is the training control. A new one is made when nil.
	Training *control.Toggle
	// TrainingSignals flip Training when received.
	TrainingSignals []os.Signal

	// MQTT publishes episodes when set.
	MQTT *notify.MQTTConfig
	// HTTP PUTs episodes when set.
	HTTP *notify.HTTPConfig
	// MetricsAddr serves Prometheus metrics when not empty.
	MetricsAddr string

	// Listeners and Observers are added to the built-in ones.
	Listeners []detect.Listener
	Observers []processor.Observer

	Logger logging.Logger

	// Source and Clock replace the backend when Source is set.
	Source input.Source
	Clock  input.Clock
	// Now replaces the detector clock.
	Now func() time.Time

	// SetupFunc runs before the pipeline starts, CleanupFunc after it stops.
	SetupFunc   func() error
	CleanupFunc func() error
	// StartFunc may derive the context the pipeline runs under.
	StartFunc func(context.Context) (context.Context, error)
}

// NewZeroConfig returns the stock configuration: 512-sample frames at 8 kHz
// on the default backend.
func NewZeroConfig() Config {
	return Config{
		SampleRate:       8000,
		FrameSize:        dsp.DefaultSize,
		Transform:        fft.DefaultBackend,
		SuppressedBins:   dsp.DefaultSuppressedBins,
		MatchHistory:     64,
		BaselineFraction: dsp.DefaultBaselineFraction,
		Detector:         detect.DefaultConfig(),
		OverflowCeiling:  dsp.DefaultOverflowCeiling,
	}
}

// Validate checks everything that can be checked before opening devices.
func (cfg *Config) Validate() error {
	if err := cfg.FrameSize.Validate(); err != nil {
		return err
	}

	if cfg.Source == nil && cfg.SampleRate <= 0 {
		return errors.New("sample rate must be positive")
	}

	if cfg.SuppressedBins < 0 || cfg.SuppressedBins >= cfg.FrameSize.Bins() {
		return errors.Errorf("suppressed bins %d outside [0, %d)",
			cfg.SuppressedBins, cfg.FrameSize.Bins())
	}

	if cfg.FrameRate < 0 {
		return errors.New("frame rate must not be negative")
	}

	if err := dsp.ValidateFraction(cfg.BaselineFraction); err != nil {
		return err
	}

	return cfg.Detector.Validate()
}

