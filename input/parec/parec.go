package parec

import (
	"context"
	"fmt"

	"github.com/lawl/pulseaudio"
	"github.com/noriah/whisker/input"
	"github.com/noriah/whisker/input/common/execread"
	"github.com/pkg/errors"
)

func init() {
	input.RegisterBackend("parec", Backend{})
}

type Backend struct{}

func (p Backend) Init() error {
	return nil
}

func (p Backend) Close() error {
	return nil
}

func (p Backend) Devices() ([]input.Device, error) {
	c, err := pulseaudio.NewClient()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create client")
	}
	defer c.Close()

	s, err := c.Sources()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get sources")
	}

	var devices = make([]input.Device, len(s))
	for i, source := range s {
		devices[i] = PulseDevice(source.Name)
	}

	return devices, nil
}

func (p Backend) DefaultDevice() (input.Device, error) {
	return PulseDevice("default"), nil
}

func (p Backend) Start(ctx context.Context, cfg input.SessionConfig) (input.Session, error) {
	s, err := NewSession(cfg)
	if err != nil {
		return nil, err
	}

	if err := s.Start(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

type PulseDevice string

func (d PulseDevice) String() string {
	return string(d)
}

// NewSession builds a mono float32 parec capture.
func NewSession(cfg input.SessionConfig) (*execread.Session, error) {
	dv, ok := cfg.Device.(PulseDevice)
	if !ok {
		return nil, fmt.Errorf("invalid device type %T", cfg.Device)
	}

	if cfg.SampleRate <= 0 {
		return nil, errors.New("sample rate must be positive")
	}

	argv := []string{
		"parec",
		"--format=float32le",
		fmt.Sprintf("--rate=%.0f", cfg.SampleRate),
		"--channels=1",
		"--latency-msec=1",
		"-d", dv.String(),
	}

	return execread.NewSession(argv, true), nil
}

// InputArgs lets ffmpeg open the source through its pulse demuxer.
func (d PulseDevice) InputArgs() []string {
	return []string{"-f", "pulse", "-i", string(d)}
}
