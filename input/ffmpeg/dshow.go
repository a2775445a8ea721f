//go:build windows

package ffmpeg

import (
	"context"
	"fmt"

	"github.com/noriah/whisker/input"
	"github.com/pkg/errors"
)

func init() {
	input.RegisterBackend("ffmpeg-dshow", DShow{})
}

// DShow is the DirectShow input for FFmpeg on Windows.
type DShow struct{}

func (p DShow) Init() error {
	return nil
}

func (p DShow) Close() error {
	return nil
}

func (p DShow) Devices() ([]input.Device, error) {
	return parseDShowDevices(listDevices("dshow"))
}

// DefaultDevice returns the first listed device. DirectShow has no default.
func (p DShow) DefaultDevice() (input.Device, error) {
	devices, err := p.Devices()
	if err != nil {
		return nil, errors.Wrap(err, "no default device")
	}
	return devices[0], nil
}

func (p DShow) Start(ctx context.Context, cfg input.SessionConfig) (input.Session, error) {
	dv, ok := cfg.Device.(DShowDevice)
	if !ok {
		return nil, fmt.Errorf("invalid device type %T", cfg.Device)
	}

	return Start(ctx, dv, cfg)
}
