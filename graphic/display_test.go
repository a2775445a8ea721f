package graphic

import (
	"os"
	"testing"

	"github.com/noriah/whisker/detect"
	"github.com/noriah/whisker/dsp"
	"github.com/noriah/whisker/processor"
	"github.com/nsf/termbox-go"
	"github.com/stretchr/testify/assert"
)

func TestColumns(t *testing.T) {
	sp := dsp.Spectrum{1, 5, 2, 2, 0, 3, 9, 1}

	assert.Equal(t, []float64{5, 2, 3, 9}, columns(sp, 4))
	assert.Equal(t, []float64(sp), columns(sp, 80))
	assert.Nil(t, columns(nil, 10))
}

func TestSignatureColumns(t *testing.T) {
	sig := dsp.Signature{Trained: true, Bins: []dsp.SignatureBin{{Index: 1, Mean: 1}, {Index: 6, Mean: 1}}}
	assert.Equal(t, []bool{true, false, false, true}, signatureColumns(sig, 8, 4))
}

func TestStopAndTop(t *testing.T) {
	cases := []struct {
		h    float64
		stop int
		top  rune
	}{
		{0, 0, ' '},
		{-3, 0, ' '},
		{2.5, 2, barRunes[4]},
		{3, 3, ' '},
		{99, 10, ' '},
	}

	for _, tc := range cases {
		stop, top := stopAndTop(tc.h, 10)
		assert.Equal(t, tc.stop, stop, "h=%g", tc.h)
		assert.Equal(t, tc.top, top, "h=%g", tc.h)
	}
}

func TestKeyAction(t *testing.T) {
	assert.Equal(t, actionTrain, keyAction(termbox.Event{Type: termbox.EventKey, Ch: 't'}))
	assert.Equal(t, actionQuit, keyAction(termbox.Event{Type: termbox.EventKey, Ch: 'q'}))
	assert.Equal(t, actionQuit, keyAction(termbox.Event{Type: termbox.EventKey, Key: termbox.KeyCtrlC}))
	assert.Equal(t, actionNone, keyAction(termbox.Event{Type: termbox.EventKey, Ch: 'x'}))
	assert.Equal(t, actionNone, keyAction(termbox.Event{Type: termbox.EventResize}))
}

func TestStatusLine(t *testing.T) {
	line := statusLine(processor.Report{
		State:       detect.InUse,
		Coefficient: 0.82,
		Stats:       dsp.SampleStats{Rate: 8000, RateValid: true},
	})
	assert.Contains(t, line, "in-use")
	assert.Contains(t, line, "match 0.82")
	assert.Contains(t, line, "rate 8000Hz")
	assert.NotContains(t, line, "weak bin")

	line = statusLine(processor.Report{Match: dsp.MatchStats{Frames: 30, WeakBin: 17, WeakRatio: 0.4}})
	assert.Contains(t, line, "weak bin 17 0.40")

	line = statusLine(processor.Report{Training: dsp.TrainerEvent{Phase: dsp.TrainingAccumulating, Frames: 12, PeakBin: 40}})
	assert.Contains(t, line, "rate ?")
	assert.Contains(t, line, "TRAINING 12 frames, peak bin 40")
}

func TestUpdateWindowScale(t *testing.T) {
	d := &Display{}
	d.slowWindow, d.fastWindow = newWindows()

	assert.Equal(t, 1.0, d.updateWindow(0))
	assert.Equal(t, 4.0, d.updateWindow(4))
	assert.InDelta(t, 4.0, d.updateWindow(4), 1e-9)
}

func TestNormalizeTerminal(t *testing.T) {
	t.Setenv("TERM", "tmux-256color")
	t.Setenv("TERMINFO", "/opt/terminfo")

	restore, err := normalizeTerminal()
	assert.NoError(t, err)

	_, set := os.LookupEnv("TERMINFO")
	assert.False(t, set)

	restore()
	assert.Equal(t, "/opt/terminfo", os.Getenv("TERMINFO"))
}
