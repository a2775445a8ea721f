// Package ffmpeg captures through an ffmpeg child process writing mono f64le
// samples to stdout.
package ffmpeg

import (
	"context"
	"fmt"

	"github.com/noriah/whisker/input"
	"github.com/noriah/whisker/input/common/execread"
	"github.com/pkg/errors"
)

// Device is a device that knows how ffmpeg should open it.
type Device interface {
	input.Device
	InputArgs() []string
}

// Args returns the ffmpeg argument vector for a capture on d.
func Args(d Device, cfg input.SessionConfig) []string {
	args := []string{"ffmpeg", "-hide_banner", "-loglevel", "panic"}
	args = append(args, d.InputArgs()...)
	args = append(args,
		"-ar", fmt.Sprintf("%.0f", cfg.SampleRate),
		"-ac", "1",
		"-f", "f64le",
		"-",
	)
	return args
}

// Start launches the capture.
func Start(ctx context.Context, d Device, cfg input.SessionConfig) (input.Session, error) {
	if cfg.SampleRate <= 0 {
		return nil, errors.New("sample rate must be positive")
	}

	s := execread.NewSession(Args(d, cfg), false)
	if err := s.Start(ctx); err != nil {
		return nil, err
	}

	return s, nil
}
