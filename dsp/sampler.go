package dsp

import (
	"time"

	"github.com/noriah/whisker/input"
	"github.com/noriah/whisker/util"
	"github.com/pkg/errors"
)

// DefaultOverflowCeiling is the largest per-sample latency counted towards
// the rate estimate. Anything larger is a counter wrap or a stall.
const DefaultOverflowCeiling = 5 * time.Millisecond

// FrameSpanHistory is how many frame spans the rate of a buffered source is
// averaged over.
const FrameSpanHistory = 16

// SampleStats describes the timing of one acquired frame.
type SampleStats struct {
	// Rate is the estimated sampling frequency in Hz. Zero when RateValid is
	// false.
	Rate      float64
	RateValid bool
	// Outliers counts samples whose latency was excluded from Rate.
	Outliers int
}

// Sampler reads fixed-length frames from a Source, timing every sample.
//
// Sources that read ahead (input.Buffered) return most samples from memory,
// so their per-sample latency says nothing about the rate. For those the
// rate comes from the time between consecutive frame ends instead.
type Sampler struct {
	// OverflowCeiling overrides DefaultOverflowCeiling when positive.
	OverflowCeiling time.Duration

	size  Size
	src   input.Source
	clock input.Clock

	buffered bool
	lastEnd  int64
	haveEnd  bool
	spans    *util.MovingWindow
}

// NewSampler returns a Sampler producing frames of size samples.
func NewSampler(size Size, src input.Source, clock input.Clock) *Sampler {
	s := &Sampler{
		size:  size,
		src:   src,
		clock: clock,
	}

	if b, ok := src.(input.Buffered); ok && b.Buffered() {
		s.buffered = true
		s.spans = util.NewMovingWindow(FrameSpanHistory)
	}

	return s
}

// Size returns the frame length.
func (s *Sampler) Size() Size {
	return s.size
}

// Acquire fills frame with exactly F samples. Source errors are wrapped and
// stay matchable with errors.Is.
func (s *Sampler) Acquire(frame []float64) (SampleStats, error) {
	if len(frame) != int(s.size) {
		return SampleStats{}, errors.Errorf("frame length %d, want %d", len(frame), s.size)
	}

	if s.buffered {
		return s.acquireBuffered(frame)
	}

	ceiling := s.OverflowCeiling
	if ceiling <= 0 {
		ceiling = DefaultOverflowCeiling
	}
	ceilUs := ceiling.Microseconds()

	var (
		total int64
		kept  int
		stats SampleStats
	)

	for i := range frame {
		start := s.clock.Micros()

		v, err := s.src.Acquire()
		if err != nil {
			return stats, errors.Wrap(err, "failed to acquire sample")
		}

		frame[i] = v

		lat := s.clock.Micros() - start
		if lat < 0 || lat > ceilUs {
			stats.Outliers++
			continue
		}

		total += lat
		kept++
	}

	if kept == 0 || total == 0 {
		return stats, nil
	}

	mean := float64(total) / float64(kept)
	stats.Rate = 1e6 / mean
	stats.RateValid = true

	return stats, nil
}

func (s *Sampler) acquireBuffered(frame []float64) (SampleStats, error) {
	var stats SampleStats

	for i := range frame {
		v, err := s.src.Acquire()
		if err != nil {
			return stats, errors.Wrap(err, "failed to acquire sample")
		}
		frame[i] = v
	}

	end := s.clock.Micros()

	if s.haveEnd {
		if span := end - s.lastEnd; span > 0 {
			s.spans.Update(float64(span))
		} else {
			stats.Outliers++
		}
	}

	s.lastEnd, s.haveEnd = end, true

	if s.spans.Len() == 0 {
		return stats, nil
	}

	stats.Rate = float64(s.size) * 1e6 / s.spans.Mean()
	stats.RateValid = true

	return stats, nil
}
