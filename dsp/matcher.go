package dsp

import "github.com/noriah/whisker/util"

// Score compares sp against sig. Each signature bin contributes
// min(sp/mean, 1), and the sum is divided by the bin count, so the result is
// in [0, 1]. An untrained signature scores 0.
func Score(sp Spectrum, sig Signature) float64 {
	if !sig.Trained || sig.Count() == 0 {
		return 0
	}

	var sum float64
	for _, b := range sig.Bins {
		if b.Index < 0 || b.Index >= len(sp) || b.Mean <= 0 {
			continue
		}

		if r := sp[b.Index] / b.Mean; r < 1 {
			sum += r
		} else {
			sum++
		}
	}

	return sum / float64(sig.Count())
}

// MatchStats are diagnostics over recent coefficients.
type MatchStats struct {
	Mean   float64
	StdDev float64
	Frames int

	// WeakBin is the signature bin with the lowest average ratio since the
	// last Reset, -1 before any trained frame. It is the bin most likely to
	// drag the coefficient under the threshold.
	WeakBin   int
	WeakRatio float64
}

// Matcher scores spectra and keeps running diagnostics on the side. The
// diagnostics never influence the returned coefficient.
type Matcher struct {
	recent *util.MovingWindow

	ratioSum []float64
	frames   int

	weakBin   int
	weakRatio float64
}

// NewMatcher keeps diagnostics over the last history coefficients.
func NewMatcher(size Size, history int) *Matcher {
	if history < 1 {
		history = 1
	}

	return &Matcher{
		recent:   util.NewMovingWindow(history),
		ratioSum: make([]float64, size.Bins()),
		weakBin:  -1,
	}
}

// Match returns Score(sp, sig) and records it.
func (m *Matcher) Match(sp Spectrum, sig Signature) float64 {
	coef := Score(sp, sig)

	if sig.Trained {
		m.recent.Update(coef)
		m.frames++
		for _, b := range sig.Bins {
			if b.Index < len(sp) && b.Index < len(m.ratioSum) && b.Mean > 0 {
				m.ratioSum[b.Index] += sp[b.Index] / b.Mean
			}
		}

		m.weakBin = -1
		for _, b := range sig.Bins {
			if r := m.BinRatio(b.Index); m.weakBin < 0 || r < m.weakRatio {
				m.weakBin, m.weakRatio = b.Index, r
			}
		}
	}

	return coef
}

// Stats returns the mean and deviation of recent coefficients.
func (m *Matcher) Stats() MatchStats {
	mean, dev := m.recent.Stats()
	return MatchStats{
		Mean:      mean,
		StdDev:    dev,
		Frames:    m.frames,
		WeakBin:   m.weakBin,
		WeakRatio: m.weakRatio,
	}
}

// BinRatio is the average unclamped ratio seen on bin i since the last
// Reset.
func (m *Matcher) BinRatio(i int) float64 {
	if m.frames == 0 || i < 0 || i >= len(m.ratioSum) {
		return 0
	}
	return m.ratioSum[i] / float64(m.frames)
}

// Reset clears the diagnostics, typically after the signature changes.
func (m *Matcher) Reset() {
	m.recent.Drop(m.recent.Len())
	for i := range m.ratioSum {
		m.ratioSum[i] = 0
	}
	m.frames = 0
	m.weakBin, m.weakRatio = -1, 0
}
