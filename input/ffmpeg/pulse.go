package ffmpeg

import (
	"context"
	"fmt"

	"github.com/noriah/whisker/input"
	"github.com/noriah/whisker/input/parec"
)

func init() {
	input.RegisterBackend("ffmpeg-pulse", Pulse{})
}

// Pulse is the pulse input for FFmpeg. Devices are listed through the parec
// backend.
type Pulse struct {
	parec.Backend
}

func (p Pulse) Start(ctx context.Context, cfg input.SessionConfig) (input.Session, error) {
	dv, ok := cfg.Device.(parec.PulseDevice)
	if !ok {
		return nil, fmt.Errorf("invalid device type %T", cfg.Device)
	}

	return Start(ctx, dv, cfg)
}
