//go:build darwin

package ffmpeg

import (
	"context"
	"fmt"

	"github.com/noriah/whisker/input"
)

func init() {
	input.RegisterBackend("ffmpeg-avfoundation", AVFoundation{})
}

// AVFoundation is the avfoundation input for FFmpeg on macOS.
type AVFoundation struct{}

func (p AVFoundation) Init() error {
	return nil
}

func (p AVFoundation) Close() error {
	return nil
}

func (p AVFoundation) Devices() ([]input.Device, error) {
	return parseAVFoundationDevices(listDevices("avfoundation"))
}

func (p AVFoundation) DefaultDevice() (input.Device, error) {
	return AVFoundationDevice{-1, "default"}, nil
}

func (p AVFoundation) Start(ctx context.Context, cfg input.SessionConfig) (input.Session, error) {
	dv, ok := cfg.Device.(AVFoundationDevice)
	if !ok {
		return nil, fmt.Errorf("invalid device type %T", cfg.Device)
	}

	return Start(ctx, dv, cfg)
}
