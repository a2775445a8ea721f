package ffmpeg

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/noriah/whisker/input"
	"github.com/pkg/errors"
)

func init() {
	input.RegisterBackend("ffmpeg-sndio", Sndio{})
}

// Sndio is the sndio input for FFmpeg.
type Sndio struct {
	// glob lists device nodes, filepath.Glob when nil
	glob func(string) ([]string, error)
}

func (p Sndio) Init() error {
	return nil
}

func (p Sndio) Close() error {
	return nil
}

// Devices returns a list of sndio devices from /dev/audio*. This is
// kernel-specific and is only known to work on OpenBSD.
func (p Sndio) Devices() ([]input.Device, error) {
	glob := p.glob
	if glob == nil {
		glob = filepath.Glob
	}

	n, err := glob("/dev/audio*")
	if err != nil {
		return nil, errors.Wrap(err, "failed to glob /dev/audio")
	}

	var devices = make([]input.Device, len(n))
	for i, path := range n {
		devices[i] = SndioDevice(path)
	}

	return devices, nil
}

func (p Sndio) DefaultDevice() (input.Device, error) {
	return SndioDevice("/dev/audio0"), nil
}

func (p Sndio) Start(ctx context.Context, cfg input.SessionConfig) (input.Session, error) {
	dv, ok := cfg.Device.(SndioDevice)
	if !ok {
		return nil, fmt.Errorf("invalid device type %T", cfg.Device)
	}

	return Start(ctx, dv, cfg)
}

// SndioDevice is the path to /dev/audioN.
type SndioDevice string

func (d SndioDevice) InputArgs() []string {
	return []string{"-f", "sndio", "-i", string(d)}
}

func (d SndioDevice) String() string {
	return string(d)
}
