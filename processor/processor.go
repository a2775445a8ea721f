// Package processor drives the per-frame pipeline: sample, transform, train,
// score, detect. Everything runs on the goroutine that calls Run.
package processor

import (
	"context"
	"io"
	"time"

	"github.com/noriah/whisker/detect"
	"github.com/noriah/whisker/dsp"
	"github.com/noriah/whisker/logging"
	"github.com/pkg/errors"
)

// Control is the training control, read once per frame. Implementations must
// be safe to flip from other goroutines.
type Control interface {
	Training() bool
}

// Report describes one processed frame. Spectrum and Signature are read-only
// views valid until the next frame.
type Report struct {
	Frame       uint64
	Time        time.Time
	Stats       dsp.SampleStats
	Spectrum    dsp.Spectrum
	Coefficient float64
	State       detect.State
	Training    dsp.TrainerEvent
	Signature   dsp.Signature
	Match       dsp.MatchStats
}

// Observer receives every frame report. Observers run inline and must not
// block.
type Observer interface {
	ObserveFrame(Report)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Report)

func (f ObserverFunc) ObserveFrame(r Report) {
	f(r)
}

type Config struct {
	Sampler   *dsp.Sampler
	Analyzer  *dsp.Analyzer
	Trainer   *dsp.Trainer
	Matcher   *dsp.Matcher
	Detector  *detect.Detector
	Control   Control          // nil never trains
	Observers []Observer       // diagnostic hooks
	FrameRate int              // target frames per second, 0 runs flat out
	Now       func() time.Time // defaults to time.Now
	Logger    logging.Logger
}

type Processor struct {
	cfg   Config
	log   logging.Logger
	frame []float64
	count uint64
	state detect.State
}

func New(cfg Config) (*Processor, error) {
	switch {
	case cfg.Sampler == nil:
		return nil, errors.New("processor needs a sampler")
	case cfg.Analyzer == nil:
		return nil, errors.New("processor needs an analyzer")
	case cfg.Trainer == nil:
		return nil, errors.New("processor needs a trainer")
	case cfg.Matcher == nil:
		return nil, errors.New("processor needs a matcher")
	case cfg.Detector == nil:
		return nil, errors.New("processor needs a detector")
	}

	if cfg.Sampler.Size() != cfg.Analyzer.Size() {
		return nil, errors.Errorf("sampler size %d does not match analyzer size %d",
			cfg.Sampler.Size(), cfg.Analyzer.Size())
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Processor{
		cfg:   cfg,
		log:   logging.OrGlobal(cfg.Logger).WithFields(logging.Fields{"component": "processor"}),
		frame: make([]float64, cfg.Sampler.Size()),
		state: cfg.Detector.State(),
	}, nil
}

// Step runs the pipeline over exactly one frame.
func (p *Processor) Step() (Report, error) {
	stats, err := p.cfg.Sampler.Acquire(p.frame)
	if err != nil {
		return Report{}, err
	}

	sp := p.cfg.Analyzer.Process(p.frame)

	training := p.cfg.Control != nil && p.cfg.Control.Training()
	tev := p.cfg.Trainer.Update(training, sp)
	p.logTraining(tev)

	sig := p.cfg.Trainer.Signature()
	coef := p.cfg.Matcher.Match(sp, sig)

	now := p.cfg.Now()
	state := p.cfg.Detector.Update(coef, now)
	if state != p.state {
		p.log.Debug("detector state changed", logging.Fields{
			"from":        p.state.String(),
			"to":          state.String(),
			"coefficient": coef,
			"first_match": p.cfg.Detector.FirstMatch(),
		})
		p.state = state
	}

	p.count++

	r := Report{
		Frame:       p.count,
		Time:        now,
		Stats:       stats,
		Spectrum:    sp,
		Coefficient: coef,
		State:       state,
		Training:    tev,
		Signature:   sig,
		Match:       p.cfg.Matcher.Stats(),
	}

	for _, o := range p.cfg.Observers {
		o.ObserveFrame(r)
	}

	return r, nil
}

func (p *Processor) logTraining(ev dsp.TrainerEvent) {
	switch ev.Phase {
	case dsp.TrainingStarted:
		p.log.Info("training started")

	case dsp.TrainingAccepted:
		p.cfg.Matcher.Reset()
		p.log.Info("signature trained", logging.Fields{
			"frames":    ev.Frames,
			"bins":      ev.Bins,
			"peak_bin":  ev.PeakBin,
			"peak_mean": ev.PeakValue,
		})

	case dsp.TrainingRejected:
		p.log.Warn("training rejected, keeping previous signature", logging.Fields{
			"frames":    ev.Frames,
			"peak_bin":  ev.PeakBin,
			"peak_mean": ev.PeakValue,
		})
	}
}

// Run processes frames until ctx is done or the source ends. Cancellation is
// checked between frames, never inside one. A source that ends with io.EOF
// returns nil.
func (p *Processor) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if p.cfg.FrameRate > 0 {
		ticker := time.NewTicker(time.Second / time.Duration(p.cfg.FrameRate))
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if _, err := p.Step(); err != nil {
			if errors.Is(err, io.EOF) {
				p.log.Info("input ended", logging.Fields{"frames": p.count})
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		}
	}
}
