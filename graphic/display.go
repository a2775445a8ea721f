// Package graphic draws the live spectrum, the signature and the detector
// state on a termbox screen.
package graphic

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/noriah/whisker/processor"
	"github.com/noriah/whisker/util"
	"github.com/nsf/termbox-go"
	"github.com/pkg/errors"
)

const (
	// ScalingSlowWindow in frames
	ScalingSlowWindow = 150

	// ScalingFastWindow in frames
	ScalingFastWindow = ScalingSlowWindow / 5

	// ScalingDumpPercent is how much we erase on rescale
	ScalingDumpPercent = 0.75

	// ScalingResetDeviation standard deviations from the mean before reset
	ScalingResetDeviation = 1

	// MaxDrawRate caps redraws per second.
	MaxDrawRate = 30
)

// Toggler flips the training control.
type Toggler interface {
	Flip() bool
}

// Display draws frame reports. It is a processor.Observer; Run owns the
// keyboard.
type Display struct {
	training Toggler

	slowWindow *util.MovingWindow
	fastWindow *util.MovingWindow

	mu       sync.Mutex
	lastDraw time.Time
	restore  func()
}

// New sets up the terminal. training may be nil, in which case the t key does
// nothing.
func New(training Toggler) (*Display, error) {
	restore, err := normalizeTerminal()
	if err != nil {
		return nil, errors.Wrap(err, "failed to prepare terminal")
	}

	if err := termbox.Init(); err != nil {
		restore()
		return nil, errors.Wrap(err, "failed to init termbox")
	}

	termbox.SetInputMode(termbox.InputEsc)
	termbox.SetOutputMode(termbox.Output256)
	termbox.HideCursor()

	slow, fast := newWindows()

	return &Display{
		training:   training,
		slowWindow: slow,
		fastWindow: fast,
		restore:    restore,
	}, nil
}

func newWindows() (*util.MovingWindow, *util.MovingWindow) {
	return util.NewMovingWindow(ScalingSlowWindow), util.NewMovingWindow(ScalingFastWindow)
}

// Run polls keyboard events until ctx is done or the user quits, then calls
// cancel. t flips training; q, Esc and Ctrl-C quit.
func (d *Display) Run(ctx context.Context, cancel context.CancelFunc) {
	defer cancel()

	events := make(chan termbox.Event)
	go func() {
		for {
			ev := termbox.PollEvent()
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
			if ev.Type == termbox.EventInterrupt {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			termbox.Interrupt()
			return

		case ev := <-events:
			switch keyAction(ev) {
			case actionQuit:
				return
			case actionTrain:
				if d.training != nil {
					d.training.Flip()
				}
			}
		}
	}
}

type action int

const (
	actionNone action = iota
	actionTrain
	actionQuit
)

func keyAction(ev termbox.Event) action {
	switch ev.Type {
	case termbox.EventKey:
		switch {
		case ev.Key == termbox.KeyCtrlC, ev.Key == termbox.KeyEsc:
			return actionQuit
		case ev.Ch == 'q', ev.Ch == 'Q':
			return actionQuit
		case ev.Ch == 't', ev.Ch == 'T', ev.Key == termbox.KeySpace:
			return actionTrain
		}

	case termbox.EventInterrupt, termbox.EventError:
		return actionQuit
	}

	return actionNone
}

// ObserveFrame redraws the screen, at most MaxDrawRate times a second.
func (d *Display) ObserveFrame(r processor.Report) {
	d.mu.Lock()
	defer d.mu.Unlock()

	peak := 0.0
	for _, v := range r.Spectrum {
		peak = math.Max(peak, v)
	}
	scale := d.updateWindow(peak)

	if r.Time.Sub(d.lastDraw) < time.Second/MaxDrawRate {
		return
	}
	d.lastDraw = r.Time

	termbox.Clear(StyleDefault, StyleDefaultBack)

	width, height := termbox.Size()
	drawStatus(r, width)
	drawSpectrum(r, width, height, scale)

	termbox.Flush()
}

// updateWindow tracks spectrum peaks and returns the value drawn at full
// height. A fast window that drifts away from the slow one dumps most of the
// slow history so the scale follows level changes quickly.
func (d *Display) updateWindow(peak float64) float64 {
	if peak > 0.0 {
		d.fastWindow.Update(peak)
		vMean, vSD := d.slowWindow.Update(peak)

		if length := d.slowWindow.Len(); length >= d.fastWindow.Cap() {
			if math.Abs(d.fastWindow.Mean()-vMean) > (ScalingResetDeviation * vSD) {
				d.slowWindow.Drop(int(float64(length) * ScalingDumpPercent))
			}
		}
	}

	mean, sd := d.slowWindow.Stats()
	if scale := mean + 2*sd; scale > 0 {
		return scale
	}
	return 1
}

// Close will stop display and clean up the terminal
func (d *Display) Close() error {
	termbox.Close()
	if d.restore != nil {
		d.restore()
	}
	return nil
}
