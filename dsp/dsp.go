// Package dsp turns raw sample frames into magnitude spectra, learns a
// per-bin signature from them and scores live spectra against it.
//
// Every stage is sized from a single Size so the sampler, analyzer, trainer
// and matcher always agree on the frame length.
package dsp

import (
	"github.com/noriah/whisker/fft"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// Size is the frame length F: the number of samples per frame and the
// transform size.
type Size int

const (
	MinSize     Size = 16
	MaxSize     Size = 8192
	DefaultSize Size = 512
)

// Bins is the number of meaningful spectrum bins, F/2.
func (s Size) Bins() int {
	return int(s) / 2
}

// Validate checks that s is a usable transform size.
func (s Size) Validate() error {
	if s < MinSize || s > MaxSize {
		return errors.Errorf("frame size %d outside [%d, %d]", s, MinSize, MaxSize)
	}

	if !fft.IsPowerOfTwo(int(s)) {
		return errors.Errorf("frame size %d is not a power of two", s)
	}

	return nil
}

// Spectrum holds one magnitude per bin, F/2 values long.
type Spectrum []float64

// Argmax returns the largest value in v and its index. An empty slice yields
// (0, -1).
func Argmax(v []float64) (float64, int) {
	if len(v) == 0 {
		return 0, -1
	}

	idx := floats.MaxIdx(v)
	return v[idx], idx
}
