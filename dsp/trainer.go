package dsp

// TrainingPhase is what a Trainer did with one frame.
type TrainingPhase int

const (
	// TrainingIdle means the control is released and nothing is happening.
	TrainingIdle TrainingPhase = iota
	// TrainingStarted is the rising edge. The frame is not accumulated.
	TrainingStarted
	// TrainingAccumulating means the frame was added to the accumulator.
	TrainingAccumulating
	// TrainingAccepted is a falling edge that produced a new signature.
	TrainingAccepted
	// TrainingRejected is a falling edge that kept the previous signature.
	TrainingRejected
)

func (p TrainingPhase) String() string {
	switch p {
	case TrainingIdle:
		return "idle"
	case TrainingStarted:
		return "started"
	case TrainingAccumulating:
		return "accumulating"
	case TrainingAccepted:
		return "accepted"
	case TrainingRejected:
		return "rejected"
	}
	return "unknown"
}

// TrainerEvent reports the outcome of one Update.
type TrainerEvent struct {
	Phase TrainingPhase
	// Frames accumulated so far in this session, or in total on a falling
	// edge.
	Frames int
	// PeakBin and PeakValue are the live peak of the frame while
	// accumulating, or the peak mean on a falling edge. PeakBin is -1 when
	// there is none.
	PeakBin   int
	PeakValue float64
	// Bins retained by an accepted signature.
	Bins int
}

// Trainer learns a Signature from the spectra seen while the training control
// is held.
type Trainer struct {
	fraction float64

	acc    []float64
	means  []float64
	frames int

	training bool
	current  Signature
	fallback Signature
}

// NewTrainer returns a trainer for spectra of size.Bins() bins.
func NewTrainer(size Size, fraction float64) (*Trainer, error) {
	if err := size.Validate(); err != nil {
		return nil, err
	}

	if err := ValidateFraction(fraction); err != nil {
		return nil, err
	}

	return &Trainer{
		fraction: fraction,
		acc:      make([]float64, size.Bins()),
		means:    make([]float64, size.Bins()),
	}, nil
}

// Signature returns the signature currently in force.
func (t *Trainer) Signature() Signature {
	return t.current
}

// Training reports whether a session is in progress.
func (t *Trainer) Training() bool {
	return t.training
}

// Update feeds one frame and the current control level. It reacts to edges
// of the control, not to its level.
func (t *Trainer) Update(training bool, sp Spectrum) TrainerEvent {
	switch {
	case training && !t.training:
		t.training = true
		t.reset()
		t.fallback = t.current
		t.current = Signature{}
		return TrainerEvent{Phase: TrainingStarted, PeakBin: -1}

	case training:
		for i := range t.acc {
			t.acc[i] += sp[i]
		}
		t.frames++

		peak, idx := Argmax(sp)
		return TrainerEvent{
			Phase:     TrainingAccumulating,
			Frames:    t.frames,
			PeakBin:   idx,
			PeakValue: peak,
		}

	case t.training:
		t.training = false
		return t.finish()
	}

	return TrainerEvent{Phase: TrainingIdle, PeakBin: -1}
}

func (t *Trainer) finish() TrainerEvent {
	defer t.reset()

	ev := TrainerEvent{Phase: TrainingRejected, Frames: t.frames, PeakBin: -1}

	if t.frames == 0 {
		t.current = t.fallback
		return ev
	}

	n := float64(t.frames)
	for i, v := range t.acc {
		t.means[i] = v / n
	}

	ev.PeakValue, ev.PeakBin = Argmax(t.means)

	sig := BuildSignature(t.means, t.fraction)
	if !sig.Trained {
		t.current = t.fallback
		return ev
	}

	t.current = sig
	ev.Phase = TrainingAccepted
	ev.Bins = sig.Count()
	return ev
}

func (t *Trainer) reset() {
	for i := range t.acc {
		t.acc[i] = 0
	}
	t.frames = 0
}
