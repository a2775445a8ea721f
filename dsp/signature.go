package dsp

import "github.com/pkg/errors"

// DefaultBaselineFraction is the share of the peak bin mean a bin must reach
// to be kept in a signature.
const DefaultBaselineFraction = 0.65

// SignatureBin is one retained bin and its baseline mean magnitude.
type SignatureBin struct {
	Index int
	Mean  float64
}

// Signature is the sparse baseline a spectrum is scored against. The zero
// value is untrained and scores 0 against anything.
//
// A Signature is never modified after it is built; replacing it means
// building a new one.
type Signature struct {
	Bins    []SignatureBin
	Trained bool
}

// Count is the number of retained bins. A trained signature always has at
// least one.
func (s Signature) Count() int {
	return len(s.Bins)
}

// ValidateFraction checks a baseline fraction.
func ValidateFraction(fraction float64) error {
	if !(fraction > 0 && fraction <= 1) {
		return errors.Errorf("baseline fraction %g outside (0, 1]", fraction)
	}
	return nil
}

// BuildSignature keeps every bin of means that is positive and at least
// fraction times the peak. The result is untrained when nothing qualifies.
func BuildSignature(means []float64, fraction float64) Signature {
	peak, idx := Argmax(means)
	if idx < 0 || peak <= 0 {
		return Signature{}
	}

	cut := fraction * peak

	var bins []SignatureBin
	for i, m := range means {
		if m > 0 && m >= cut {
			bins = append(bins, SignatureBin{Index: i, Mean: m})
		}
	}

	if len(bins) == 0 {
		return Signature{}
	}

	return Signature{Bins: bins, Trained: true}
}
