package fft

import (
	"gonum.org/v1/gonum/dsp/fourier"
)

type gonum struct {
	fft *fourier.CmplxFFT
}

func newGonum(n int) *gonum {
	return &gonum{fft: fourier.NewCmplxFFT(n)}
}

func (g *gonum) execute(dst, src []complex128) {
	g.fft.Coefficients(dst, src)
}
