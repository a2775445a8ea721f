package graphic

import (
	"fmt"
	"math"

	"github.com/noriah/whisker/dsp"
	"github.com/noriah/whisker/processor"
	"github.com/nsf/termbox-go"
)

const (
	// BarRune is the block we use for bars
	BarRune rune = '█'

	// SignatureRune marks columns that hold signature bins.
	SignatureRune rune = '▲'

	// NumRunes number of runes for sub step bars
	NumRunes = 8

	StyleDefault     = termbox.ColorDefault
	StyleDefaultBack = termbox.ColorDefault
	StyleSignature   = termbox.ColorMagenta
	StyleActive      = termbox.ColorGreen | termbox.AttrBold
	StyleTraining    = termbox.ColorYellow | termbox.AttrBold
)

var barRunes = [NumRunes]rune{
	' ',
	'▁',
	'▂',
	'▃',
	'▄',
	'▅',
	'▆',
	'▇',
}

// statusLine renders the one-line summary at the top of the screen.
func statusLine(r processor.Report) string {
	rate := "rate ?"
	if r.Stats.RateValid {
		rate = fmt.Sprintf("rate %.0fHz", r.Stats.Rate)
	}

	training := ""
	if r.Training.Phase == dsp.TrainingStarted || r.Training.Phase == dsp.TrainingAccumulating {
		training = fmt.Sprintf("  TRAINING %d frames, peak bin %d", r.Training.Frames, r.Training.PeakBin)
	}

	weak := ""
	if r.Match.WeakBin >= 0 && r.Match.Frames > 0 {
		weak = fmt.Sprintf("  weak bin %d %.2f", r.Match.WeakBin, r.Match.WeakRatio)
	}

	return fmt.Sprintf("%-15s match %.2f  avg %.2f  bins %d  %s%s%s",
		r.State, r.Coefficient, r.Match.Mean, r.Signature.Count(), rate, weak, training)
}

func drawStatus(r processor.Report, width int) {
	fg := StyleDefault
	switch {
	case r.Training.Phase == dsp.TrainingStarted || r.Training.Phase == dsp.TrainingAccumulating:
		fg = StyleTraining
	case r.State.Active():
		fg = StyleActive
	}

	for x, ch := range []rune(statusLine(r)) {
		if x >= width {
			break
		}
		termbox.SetCell(x, 0, ch, fg, StyleDefaultBack)
	}
}

// drawSpectrum draws bars bottom up under the status line, with a marker row
// for the columns that hold signature bins.
func drawSpectrum(r processor.Report, width, height int, scale float64) {
	// status line and marker row
	vHeight := height - 2
	if vHeight < 1 || width < 1 {
		return
	}

	cols := columns(r.Spectrum, width)
	marks := signatureColumns(r.Signature, len(r.Spectrum), len(cols))

	for x, v := range cols {
		fg := StyleDefault
		if marks[x] {
			fg = StyleSignature
			termbox.SetCell(x, height-1, SignatureRune, StyleSignature, StyleDefaultBack)
		}

		stop, top := stopAndTop(v/scale*float64(vHeight), vHeight)

		row := height - 2
		for ; row > height-2-stop; row-- {
			termbox.SetCell(x, row, BarRune, fg, StyleDefaultBack)
		}

		if top != ' ' && row > 0 {
			termbox.SetCell(x, row, top, fg, StyleDefaultBack)
		}
	}
}

// columns max-pools sp into at most width columns.
func columns(sp dsp.Spectrum, width int) []float64 {
	if len(sp) == 0 || width < 1 {
		return nil
	}

	n := width
	if len(sp) < n {
		n = len(sp)
	}

	out := make([]float64, n)
	for i, v := range sp {
		c := i * n / len(sp)
		out[c] = math.Max(out[c], v)
	}

	return out
}

// signatureColumns reports which of n columns over bins spectrum bins hold a
// signature bin.
func signatureColumns(sig dsp.Signature, bins, n int) []bool {
	marks := make([]bool, n)
	if bins == 0 {
		return marks
	}

	for _, b := range sig.Bins {
		if b.Index >= 0 && b.Index < bins {
			marks[b.Index*n/bins] = true
		}
	}

	return marks
}

// stopAndTop splits a bar of height h rows into full cells and the partial
// rune drawn on top, clamped to max rows.
func stopAndTop(h float64, max int) (int, rune) {
	if h <= 0 || math.IsNaN(h) {
		return 0, ' '
	}

	if h >= float64(max) {
		return max, ' '
	}

	whole := int(h)
	frac := int((h - float64(whole)) * NumRunes)

	return whole, barRunes[frac]
}
