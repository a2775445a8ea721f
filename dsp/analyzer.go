package dsp

import (
	"math"

	"github.com/noriah/whisker/dsp/window"
	"github.com/noriah/whisker/fft"
	"github.com/pkg/errors"
)

// DefaultSuppressedBins is how many of the lowest bins are zeroed to drop DC
// and broadband power bias.
const DefaultSuppressedBins = 3

type AnalyzerConfig struct {
	Size           Size            // frame length
	Backend        fft.Backend     // transform implementation
	Window         window.Function // applied to each frame before the transform, may be nil
	SuppressedBins int             // lowest bins forced to zero
}

// Analyzer reduces a frame to its magnitude spectrum.
type Analyzer struct {
	size       Size
	window     window.Function
	suppressed int

	real     []float64
	plan     *fft.Plan
	spectrum Spectrum
}

func NewAnalyzer(cfg AnalyzerConfig) (*Analyzer, error) {
	if err := cfg.Size.Validate(); err != nil {
		return nil, err
	}

	if cfg.SuppressedBins < 0 || cfg.SuppressedBins >= cfg.Size.Bins() {
		return nil, errors.Errorf("suppressed bins %d outside [0, %d)",
			cfg.SuppressedBins, cfg.Size.Bins())
	}

	n := int(cfg.Size)

	plan, err := fft.NewPlan(cfg.Backend, make([]complex128, n), make([]complex128, n))
	if err != nil {
		return nil, errors.Wrap(err, "failed to plan transform")
	}

	return &Analyzer{
		size:       cfg.Size,
		window:     cfg.Window,
		suppressed: cfg.SuppressedBins,
		real:       make([]float64, n),
		plan:       plan,
		spectrum:   make(Spectrum, cfg.Size.Bins()),
	}, nil
}

// Size returns the frame length the analyzer was built for.
func (az *Analyzer) Size() Size {
	return az.size
}

// Process transforms frame and returns its spectrum. The returned slice is
// owned by the analyzer and overwritten by the next call. frame is not
// modified.
func (az *Analyzer) Process(frame []float64) Spectrum {
	copy(az.real, frame)
	if az.window != nil {
		az.window(az.real)
	}

	for i, v := range az.real {
		az.plan.Input[i] = complex(v, 0)
	}

	az.plan.Execute()

	// Only the first half of a real-input transform is independent.
	for i := range az.spectrum {
		c := az.plan.Output[i]
		az.spectrum[i] = math.Hypot(real(c), imag(c))
	}

	for i := 0; i < az.suppressed; i++ {
		az.spectrum[i] = 0
	}

	return az.spectrum
}
