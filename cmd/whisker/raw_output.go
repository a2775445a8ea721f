package main

import (
	"fmt"
	"io"

	"github.com/noriah/whisker/processor"
	"github.com/noriah/whisker/util"
)

// Constants
const (
	// ScalingWindow in frames
	ScalingWindow = 64
	// PeakThreshold is the threshold to not scale if the peak is less.
	PeakThreshold = 0.001
)

// RawOutput prints one line per frame: frame number, coefficient, state and
// a row of scaled bins.
type RawOutput struct {
	out      io.Writer
	binCount int
	window   *util.MovingWindow
}

var _ processor.Observer = &RawOutput{}

func NewRawOutput(w io.Writer, binCount int) *RawOutput {
	return &RawOutput{
		out:      w,
		binCount: binCount,
		window:   util.NewMovingWindow(ScalingWindow),
	}
}

// ObserveFrame writes r.
func (d *RawOutput) ObserveFrame(r processor.Report) {
	bins := d.binCount
	if bins > len(r.Spectrum) {
		bins = len(r.Spectrum)
	}

	peak := 0.0
	for _, val := range r.Spectrum[:bins] {
		if val > peak {
			peak = val
		}
	}

	scale := 1.0

	if peak >= PeakThreshold {
		d.window.Update(peak)
	}

	vMean, vSD := d.window.Stats()

	if t := vMean + (2.0 * vSD); t > 1.0 {
		scale = t
	}

	scale = 100.0 / scale

	fmt.Fprintf(d.out, "%d %.3f %s", r.Frame, r.Coefficient, r.State)

	for _, val := range r.Spectrum[:bins] {
		fmt.Fprintf(d.out, " %6.3f", val*scale)
	}

	fmt.Fprintln(d.out)
}
