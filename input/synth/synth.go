// Package synth is a capture backend that generates signals instead of reading
// hardware. It is useful for demos and for exercising the pipeline without a
// microphone.
package synth

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/noriah/whisker/input"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/distuv"
)

func init() {
	input.RegisterBackend("synth", Backend{})
}

type Backend struct{}

func (b Backend) Init() error {
	return nil
}

func (b Backend) Close() error {
	return nil
}

func (b Backend) Devices() ([]input.Device, error) {
	return []input.Device{
		Device{Kind: Tone, Freq: 1000, Amplitude: 0.8},
		Device{Kind: Noise, Amplitude: 0.2},
		Device{Kind: Silence},
	}, nil
}

func (b Backend) DefaultDevice() (input.Device, error) {
	return Device{Kind: Tone, Freq: 1000, Amplitude: 0.8}, nil
}

func (b Backend) ParseDevice(s string) (input.Device, error) {
	return ParseDevice(s)
}

func (b Backend) Start(ctx context.Context, cfg input.SessionConfig) (input.Session, error) {
	dv, ok := cfg.Device.(Device)
	if !ok {
		return nil, fmt.Errorf("invalid device type %T", cfg.Device)
	}

	g, err := NewGenerator(dv, cfg.SampleRate)
	if err != nil {
		return nil, err
	}

	g.ctx = ctx
	g.pace = true
	return g, nil
}

// Kind of signal a Device produces.
type Kind string

const (
	Tone    Kind = "tone"
	Noise   Kind = "noise"
	Silence Kind = "silence"
)

// Device describes a synthetic signal. Its String form round-trips through
// ParseDevice, e.g. "tone:1000:0.8" or "noise:0.2".
type Device struct {
	Kind      Kind
	Freq      float64
	Amplitude float64
}

func (d Device) String() string {
	switch d.Kind {
	case Tone:
		return fmt.Sprintf("tone:%g:%g", d.Freq, d.Amplitude)
	case Noise:
		return fmt.Sprintf("noise:%g", d.Amplitude)
	default:
		return string(Silence)
	}
}

// ParseDevice parses the String form of a Device.
func ParseDevice(s string) (Device, error) {
	parts := strings.Split(s, ":")

	num := func(i int, def float64) (float64, error) {
		if len(parts) <= i {
			return def, nil
		}
		return strconv.ParseFloat(parts[i], 64)
	}

	switch Kind(parts[0]) {
	case Tone:
		freq, err := num(1, 1000)
		if err != nil {
			return Device{}, errors.Wrap(err, "bad tone frequency")
		}
		amp, err := num(2, 0.8)
		if err != nil {
			return Device{}, errors.Wrap(err, "bad tone amplitude")
		}
		return Device{Kind: Tone, Freq: freq, Amplitude: amp}, nil

	case Noise:
		amp, err := num(1, 0.2)
		if err != nil {
			return Device{}, errors.Wrap(err, "bad noise amplitude")
		}
		return Device{Kind: Noise, Amplitude: amp}, nil

	case Silence:
		return Device{Kind: Silence}, nil
	}

	return Device{}, errors.Errorf("unknown synth device %q", s)
}

// Generator produces one sample of its Device per Acquire.
type Generator struct {
	dev   Device
	rate  float64
	n     int64
	noise distuv.Normal

	ctx   context.Context
	pace  bool
	start time.Time
}

// NewGenerator builds an unpaced generator.
func NewGenerator(d Device, sampleRate float64) (*Generator, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sample rate must be positive")
	}

	if d.Kind == Tone && (d.Freq <= 0 || d.Freq >= sampleRate/2) {
		return nil, errors.Errorf("tone frequency %g outside (0, %g)", d.Freq, sampleRate/2)
	}

	return &Generator{
		dev:   d,
		rate:  sampleRate,
		noise: distuv.Normal{Mu: 0, Sigma: math.Max(d.Amplitude, 1e-12)},
		ctx:   context.Background(),
	}, nil
}

func (g *Generator) Acquire() (float64, error) {
	if err := g.ctx.Err(); err != nil {
		return 0, err
	}

	if g.pace {
		g.wait()
	}

	n := g.n
	g.n++

	switch g.dev.Kind {
	case Tone:
		return g.dev.Amplitude * math.Sin(2*math.Pi*g.dev.Freq*float64(n)/g.rate), nil
	case Noise:
		return g.noise.Rand(), nil
	default:
		return 0, nil
	}
}

// wait holds the generator to real time, sleeping once it runs a full
// millisecond ahead of the wall clock.
func (g *Generator) wait() {
	if g.start.IsZero() {
		g.start = time.Now()
		return
	}

	due := g.start.Add(time.Duration(float64(g.n) / g.rate * float64(time.Second)))
	if ahead := time.Until(due); ahead > time.Millisecond {
		time.Sleep(ahead)
	}
}

func (g *Generator) Close() error {
	return nil
}
