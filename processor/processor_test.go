package processor

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/noriah/whisker/detect"
	"github.com/noriah/whisker/dsp"
	"github.com/noriah/whisker/input"
	"github.com/noriah/whisker/input/common/execread"
	"github.com/noriah/whisker/input/synth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSize dsp.Size = 64
	testRate          = 8000.0
	// 10 cycles per frame keeps every frame identical
	toneFreq = 10 * testRate / float64(testSize)
)

// gatedSource plays a tone while on and silence otherwise.
type gatedSource struct {
	on   bool
	tone *synth.Generator
}

func (s *gatedSource) Acquire() (float64, error) {
	v, err := s.tone.Acquire()
	if !s.on {
		return 0, err
	}
	return v, err
}

type tickClock struct{ now int64 }

func (c *tickClock) Micros() int64 {
	c.now += 125
	return c.now
}

type button struct{ held bool }

func (b *button) Training() bool { return b.held }

type listener struct {
	changes   []bool
	durations []int
}

func (l *listener) ActivityChanged(active bool) { l.changes = append(l.changes, active) }
func (l *listener) ActivityDuration(s int)      { l.durations = append(l.durations, s) }

type fakeNow struct {
	t    time.Time
	step time.Duration
}

func (f *fakeNow) Now() time.Time {
	f.t = f.t.Add(f.step)
	return f.t
}

// stallClock makes every sample take longer than the overflow ceiling.
type stallClock struct{ now int64 }

func (c *stallClock) Micros() int64 {
	c.now += 10000
	return c.now
}

func newTestProcessor(t *testing.T, src input.Source, ctrl Control, l detect.Listener, obs ...Observer) *Processor {
	t.Helper()
	return newClockedProcessor(t, &tickClock{}, src, ctrl, l, obs...)
}

func newClockedProcessor(t *testing.T, sampleClock input.Clock, src input.Source, ctrl Control, l detect.Listener, obs ...Observer) *Processor {
	t.Helper()

	az, err := dsp.NewAnalyzer(dsp.AnalyzerConfig{Size: testSize, SuppressedBins: dsp.DefaultSuppressedBins})
	require.NoError(t, err)

	tr, err := dsp.NewTrainer(testSize, dsp.DefaultBaselineFraction)
	require.NoError(t, err)

	det, err := detect.New(detect.DefaultConfig(), l)
	require.NoError(t, err)

	clock := &fakeNow{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), step: 100 * time.Millisecond}

	p, err := New(Config{
		Sampler:   dsp.NewSampler(testSize, src, sampleClock),
		Analyzer:  az,
		Trainer:   tr,
		Matcher:   dsp.NewMatcher(testSize, 16),
		Detector:  det,
		Control:   ctrl,
		Observers: obs,
		Now:       clock.Now,
	})
	require.NoError(t, err)

	return p
}

func TestTrainThenDetectEpisode(t *testing.T) {
	gen, err := synth.NewGenerator(synth.Device{Kind: synth.Tone, Freq: toneFreq, Amplitude: 0.5}, testRate)
	require.NoError(t, err)

	src := &gatedSource{on: true, tone: gen}
	btn := &button{}
	l := &listener{}

	var reports []Report
	p := newTestProcessor(t, src, btn, l, ObserverFunc(func(r Report) {
		reports = append(reports, r)
	}))

	step := func(n int) Report {
		var r Report
		for i := 0; i < n; i++ {
			r, err = p.Step()
			require.NoError(t, err)
		}
		return r
	}

	// untrained: nothing matches
	r := step(5)
	assert.Equal(t, 0.0, r.Coefficient)
	assert.Equal(t, detect.Idle, r.State)

	btn.held = true
	r = step(10)
	assert.Equal(t, dsp.TrainingAccumulating, r.Training.Phase)
	assert.Equal(t, 10, r.Training.PeakBin)

	btn.held = false
	r = step(1)
	require.Equal(t, dsp.TrainingAccepted, r.Training.Phase)
	assert.True(t, r.Signature.Trained)
	assert.InDelta(t, 1.0, r.Coefficient, 1e-9)
	assert.InDelta(t, 8000, r.Stats.Rate, 1e-9)

	r = step(11)
	assert.Equal(t, detect.InUse, r.State)
	assert.Equal(t, []bool{true}, l.changes)

	src.on = false
	r = step(150)
	assert.Equal(t, detect.Idle, r.State)
	assert.Equal(t, []bool{true, false}, l.changes)
	require.Len(t, l.durations, 1)
	assert.Positive(t, l.durations[0])

	assert.Len(t, reports, 177)
	assert.Equal(t, uint64(177), reports[len(reports)-1].Frame)
}

func TestUndefinedRateStillDetects(t *testing.T) {
	gen, err := synth.NewGenerator(synth.Device{Kind: synth.Tone, Freq: toneFreq, Amplitude: 0.5}, testRate)
	require.NoError(t, err)

	btn := &button{}
	l := &listener{}
	p := newClockedProcessor(t, &stallClock{}, gen, btn, l)

	step := func(n int) Report {
		var r Report
		for i := 0; i < n; i++ {
			r, err = p.Step()
			require.NoError(t, err)
			require.False(t, r.Stats.RateValid)
			require.Equal(t, 0.0, r.Stats.Rate)
			require.Equal(t, int(testSize), r.Stats.Outliers)
		}
		return r
	}

	btn.held = true
	step(10)
	btn.held = false

	r := step(1)
	require.Equal(t, dsp.TrainingAccepted, r.Training.Phase)
	assert.InDelta(t, 1.0, r.Coefficient, 1e-9)
	assert.Equal(t, detect.SignalDetected, r.State)

	r = step(11)
	assert.Equal(t, detect.InUse, r.State)
	assert.Equal(t, []bool{true}, l.changes)
}

func TestRunStopsOnEOF(t *testing.T) {
	// two and a half frames of float32 zeros
	raw := bytes.Repeat([]byte{0, 0, 0, 0}, int(testSize)*5/2)
	src := execread.FromReader(bytes.NewReader(raw), true)

	var frames int
	p := newTestProcessor(t, src, nil, nil, ObserverFunc(func(Report) { frames++ }))

	assert.NoError(t, p.Run(context.Background()))
	assert.Equal(t, 2, frames)
}

func TestRunHonoursCancel(t *testing.T) {
	gen, err := synth.NewGenerator(synth.Device{Kind: synth.Silence}, testRate)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())

	var frames int
	p := newTestProcessor(t, gen, nil, nil, ObserverFunc(func(Report) {
		frames++
		if frames == 3 {
			cancel()
		}
	}))

	assert.ErrorIs(t, p.Run(ctx), context.Canceled)
	assert.Equal(t, 3, frames)
}

func TestNewRejectsMismatch(t *testing.T) {
	az, err := dsp.NewAnalyzer(dsp.AnalyzerConfig{Size: 128})
	require.NoError(t, err)
	tr, err := dsp.NewTrainer(testSize, 0.5)
	require.NoError(t, err)
	det, err := detect.New(detect.DefaultConfig(), nil)
	require.NoError(t, err)

	_, err = New(Config{
		Sampler:  dsp.NewSampler(testSize, &gatedSource{}, &tickClock{}),
		Analyzer: az,
		Trainer:  tr,
		Matcher:  dsp.NewMatcher(testSize, 1),
		Detector: det,
	})
	assert.Error(t, err)

	_, err = New(Config{})
	assert.Error(t, err)
}

func BenchmarkStep(b *testing.B) {
	gen, _ := synth.NewGenerator(synth.Device{Kind: synth.Noise, Amplitude: 0.2}, testRate)
	az, _ := dsp.NewAnalyzer(dsp.AnalyzerConfig{Size: dsp.DefaultSize, SuppressedBins: 3})
	tr, _ := dsp.NewTrainer(dsp.DefaultSize, dsp.DefaultBaselineFraction)
	det, _ := detect.New(detect.DefaultConfig(), nil)

	p, err := New(Config{
		Sampler:  dsp.NewSampler(dsp.DefaultSize, gen, &tickClock{}),
		Analyzer: az,
		Trainer:  tr,
		Matcher:  dsp.NewMatcher(dsp.DefaultSize, 32),
		Detector: det,
	})
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := p.Step(); err != nil {
			b.Fatal(err)
		}
	}
}
