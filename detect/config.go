package detect

import (
	"time"

	"github.com/pkg/errors"
)

var (
	ErrThreshold = errors.New("match threshold must be inside (0, 1)")
	ErrDuration  = errors.New("detector durations must not be negative")
)

// Config holds the detector threshold and timers.
type Config struct {
	// MatchThreshold is the coefficient a frame must exceed to count as a
	// match.
	MatchThreshold float64
	// DetectionMinTime is how long matches must persist before an episode
	// is confirmed.
	DetectionMinTime time.Duration
	// InUseReleaseTime is the silence tolerated inside a confirmed episode.
	InUseReleaseTime time.Duration
	// SpikeWaitingTimeout bounds the wait for a trailing spike.
	SpikeWaitingTimeout time.Duration
	// SpikeReleaseTime is the final silence that ends an episode.
	SpikeReleaseTime time.Duration
	// SpuriousReleaseTime drops an unconfirmed detection.
	SpuriousReleaseTime time.Duration
}

// DefaultConfig returns the stock timings.
func DefaultConfig() Config {
	return Config{
		MatchThreshold:      0.6,
		DetectionMinTime:    1000 * time.Millisecond,
		InUseReleaseTime:    2500 * time.Millisecond,
		SpikeWaitingTimeout: 7000 * time.Millisecond,
		SpikeReleaseTime:    3000 * time.Millisecond,
		SpuriousReleaseTime: 350 * time.Millisecond,
	}
}

// Validate checks c.
func (c Config) Validate() error {
	if !(c.MatchThreshold > 0 && c.MatchThreshold < 1) {
		return errors.Wrapf(ErrThreshold, "got %g", c.MatchThreshold)
	}

	durations := []struct {
		name string
		d    time.Duration
	}{
		{"detection min time", c.DetectionMinTime},
		{"in use release time", c.InUseReleaseTime},
		{"spike waiting timeout", c.SpikeWaitingTimeout},
		{"spike release time", c.SpikeReleaseTime},
		{"spurious release time", c.SpuriousReleaseTime},
	}

	for _, f := range durations {
		if f.d < 0 {
			return errors.Wrapf(ErrDuration, "%s is %s", f.name, f.d)
		}
	}

	return nil
}
