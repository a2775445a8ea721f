// Package detect turns per-frame match coefficients into debounced activity
// episodes.
package detect

import (
	"math"
	"time"
)

// State of the detector.
type State int

const (
	Idle State = iota
	SignalDetected
	InUse
	WaitingSpike
	SpikeRelease
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case SignalDetected:
		return "signal-detected"
	case InUse:
		return "in-use"
	case WaitingSpike:
		return "waiting-spike"
	case SpikeRelease:
		return "spike-release"
	}
	return "unknown"
}

// Active reports whether s belongs to a confirmed episode.
func (s State) Active() bool {
	return s == InUse || s == WaitingSpike || s == SpikeRelease
}

// Listener receives episode boundaries.
type Listener interface {
	// ActivityChanged fires with true when an episode is confirmed and with
	// false when it ends.
	ActivityChanged(active bool)
	// ActivityDuration fires right after ActivityChanged(false) with the
	// episode length in whole seconds, rounded up.
	ActivityDuration(seconds int)
}

// Detector is the episode state machine. It is not safe for concurrent use;
// one goroutine feeds it once per frame.
type Detector struct {
	cfg      Config
	listener Listener

	state   State
	entered time.Time

	// valid only between leaving Idle and returning to it
	firstMatch time.Time
	lastMatch  time.Time
}

// New returns a Detector in Idle. listener may be nil.
func New(cfg Config, listener Listener) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Detector{cfg: cfg, listener: listener}, nil
}

// State returns the current state.
func (d *Detector) State() State {
	return d.state
}

// FirstMatch returns the start of the current episode, or the zero time when
// idle.
func (d *Detector) FirstMatch() time.Time {
	return d.firstMatch
}

// Update feeds one frame's coefficient m observed at now and returns the
// resulting state.
func (d *Detector) Update(m float64, now time.Time) State {
	matched := m > d.cfg.MatchThreshold
	if matched {
		d.lastMatch = now
	}

	switch d.state {
	case Idle:
		if matched {
			d.firstMatch = now
			d.enter(SignalDetected, now)
		}

	case SignalDetected:
		switch {
		case matched && now.Sub(d.firstMatch) >= d.cfg.DetectionMinTime:
			d.enter(InUse, now)
			d.changed(true)
		case !matched && now.Sub(d.lastMatch) > d.cfg.SpuriousReleaseTime:
			d.clear(now)
		}

	case InUse:
		if !matched && now.Sub(d.lastMatch) > d.cfg.InUseReleaseTime {
			d.enter(WaitingSpike, now)
		}

	case WaitingSpike:
		if matched || now.Sub(d.entered) >= d.cfg.SpikeWaitingTimeout {
			d.enter(SpikeRelease, now)
		}

	case SpikeRelease:
		// A match here pushes the release back but never re-arms the episode.
		quietSince := d.entered
		if d.lastMatch.After(quietSince) {
			quietSince = d.lastMatch
		}

		if !matched && now.Sub(quietSince) > d.cfg.SpikeReleaseTime {
			seconds := int(math.Ceil(now.Sub(d.firstMatch).Seconds()))
			d.clear(now)
			d.changed(false)
			if d.listener != nil {
				d.listener.ActivityDuration(seconds)
			}
		}
	}

	return d.state
}

// Reset drops any episode in progress without notifying.
func (d *Detector) Reset() {
	d.clear(time.Time{})
}

func (d *Detector) enter(s State, now time.Time) {
	d.state = s
	d.entered = now
}

func (d *Detector) clear(now time.Time) {
	d.enter(Idle, now)
	d.firstMatch = time.Time{}
	d.lastMatch = time.Time{}
}

func (d *Detector) changed(active bool) {
	if d.listener != nil {
		d.listener.ActivityChanged(active)
	}
}
