// Package whisker wires an input backend to the detection pipeline and its
// outputs.
package whisker

import (
	"context"

	"github.com/noriah/whisker/control"
	"github.com/noriah/whisker/detect"
	"github.com/noriah/whisker/dsp"
	"github.com/noriah/whisker/input"
	"github.com/noriah/whisker/logging"
	"github.com/noriah/whisker/metrics"
	"github.com/noriah/whisker/notify"
	"github.com/noriah/whisker/processor"
	"github.com/pkg/errors"
)

// Run builds the pipeline and processes frames until ctx is done or the input
// ends.
func Run(cfg *Config, ctx context.Context) error {
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid config")
	}

	log := logging.OrGlobal(cfg.Logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	src, clock := cfg.Source, cfg.Clock
	if src == nil {
		session, closeFn, err := openInput(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer closeFn()
		src = session
	}

	if clock == nil {
		clock = input.NewMonotonicClock()
	}

	training := cfg.Training
	if training == nil {
		training = &control.Toggle{}
	}

	listeners := notify.Multi{notify.NewLog(log)}
	observers := append([]processor.Observer(nil), cfg.Observers...)

	if cfg.MetricsAddr != "" {
		m := metrics.New()
		listeners = append(listeners, m)
		observers = append(observers, m)

		go func() {
			if err := m.Serve(ctx, cfg.MetricsAddr, log); err != nil {
				log.Error(err, "metrics server stopped")
			}
		}()
	}

	if cfg.MQTT != nil {
		mq, err := notify.DialMQTT(*cfg.MQTT, log)
		if err != nil {
			return errors.Wrap(err, "failed to set up mqtt")
		}
		defer mq.Close()
		listeners = append(listeners, mq)
	}

	if cfg.HTTP != nil {
		hn, err := notify.NewHTTP(ctx, *cfg.HTTP, log)
		if err != nil {
			return errors.Wrap(err, "failed to set up http notifier")
		}
		defer hn.Close()
		listeners = append(listeners, hn)
	}

	listeners = append(listeners, cfg.Listeners...)

	proc, err := buildProcessor(cfg, src, clock, training, listeners, observers, log)
	if err != nil {
		return err
	}

	if cfg.SetupFunc != nil {
		if err := cfg.SetupFunc(); err != nil {
			return err
		}
	}

	if cfg.CleanupFunc != nil {
		defer cfg.CleanupFunc()
	}

	if cfg.StartFunc != nil {
		if ctx, err = cfg.StartFunc(ctx); err != nil {
			return err
		}
	}

	if len(cfg.TrainingSignals) > 0 {
		go control.FlipOnSignal(ctx, training, log, cfg.TrainingSignals...)
	}

	log.Info("detector running", logging.Fields{
		"frame_size": int(cfg.FrameSize),
		"transform":  string(cfg.Transform),
		"threshold":  cfg.Detector.MatchThreshold,
	})

	if err := proc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return errors.Wrap(err, "pipeline stopped")
	}

	return nil
}

func openInput(ctx context.Context, cfg *Config, log logging.Logger) (input.Session, func(), error) {
	name := cfg.Backend
	if name == "" {
		name = input.DefaultBackend()
	}

	backend, err := input.InitBackend(name)
	if err != nil {
		return nil, nil, err
	}

	device, err := input.GetDevice(backend, cfg.Device)
	if err != nil {
		backend.Close()
		return nil, nil, err
	}

	session, err := backend.Start(ctx, input.SessionConfig{
		Device:     device,
		SampleRate: cfg.SampleRate,
	})
	if err != nil {
		backend.Close()
		return nil, nil, errors.Wrap(err, "failed to start the input backend")
	}

	log.Info("input opened", logging.Fields{
		"backend": name,
		"device":  device.String(),
		"rate":    cfg.SampleRate,
	})

	return session, func() {
		session.Close()
		backend.Close()
	}, nil
}

func buildProcessor(
	cfg *Config,
	src input.Source,
	clock input.Clock,
	training processor.Control,
	listener detect.Listener,
	observers []processor.Observer,
	log logging.Logger,
) (*processor.Processor, error) {
	az, err := dsp.NewAnalyzer(dsp.AnalyzerConfig{
		Size:           cfg.FrameSize,
		Backend:        cfg.Transform,
		Window:         cfg.Window,
		SuppressedBins: cfg.SuppressedBins,
	})
	if err != nil {
		return nil, err
	}

	tr, err := dsp.NewTrainer(cfg.FrameSize, cfg.BaselineFraction)
	if err != nil {
		return nil, err
	}

	det, err := detect.New(cfg.Detector, listener)
	if err != nil {
		return nil, err
	}

	sampler := dsp.NewSampler(cfg.FrameSize, src, clock)
	sampler.OverflowCeiling = cfg.OverflowCeiling

	return processor.New(processor.Config{
		Sampler:   sampler,
		Analyzer:  az,
		Trainer:   tr,
		Matcher:   dsp.NewMatcher(cfg.FrameSize, cfg.MatchHistory),
		Detector:  det,
		Control:   training,
		Observers: observers,
		FrameRate: cfg.FrameRate,
		Now:       cfg.Now,
		Logger:    log,
	})
}
