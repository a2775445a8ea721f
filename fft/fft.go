// Package fft provides the forward transform primitive used by the spectral
// analyzer. A Plan is bound to one fixed-size pair of buffers.
package fft

import (
	"github.com/pkg/errors"
)

// Backend names a transform implementation.
type Backend string

// Available backends.
const (
	Gonum Backend = "gonum"
	GoDSP Backend = "godsp"
)

// DefaultBackend is used when no backend is named.
const DefaultBackend = Gonum

// Backends lists every supported backend name.
var Backends = []Backend{Gonum, GoDSP}

type executor interface {
	execute(dst, src []complex128)
}

// Plan holds a forward complex transform of len(Input) points.
type Plan struct {
	Input  []complex128
	Output []complex128

	backend Backend
	exec    executor
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// NewPlan binds a plan to the given buffers. Both buffers must have the same
// power of two length.
func NewPlan(backend Backend, input, output []complex128) (*Plan, error) {
	if len(input) != len(output) {
		return nil, errors.Errorf("buffer length mismatch: in %d, out %d",
			len(input), len(output))
	}

	if !IsPowerOfTwo(len(input)) {
		return nil, errors.Errorf("transform size %d is not a power of two", len(input))
	}

	if backend == "" {
		backend = DefaultBackend
	}

	p := &Plan{
		Input:   input,
		Output:  output,
		backend: backend,
	}

	switch backend {
	case Gonum:
		p.exec = newGonum(len(input))
	case GoDSP:
		p.exec = goDSP{}
	default:
		return nil, errors.Errorf("unknown transform backend %q", backend)
	}

	return p, nil
}

// Backend returns the backend this plan runs on.
func (p *Plan) Backend() Backend {
	return p.backend
}

// Execute runs the plan. Input is left untouched.
func (p *Plan) Execute() {
	p.exec.execute(p.Output, p.Input)
}
