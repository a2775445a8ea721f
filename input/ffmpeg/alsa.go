package ffmpeg

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/noriah/whisker/input"
	"github.com/pkg/errors"
)

func init() {
	input.RegisterBackend("ffmpeg-alsa", ALSA{})
}

type ALSA struct{}

func (p ALSA) Init() error {
	return nil
}

func (p ALSA) Close() error {
	return nil
}

func (p ALSA) Devices() ([]input.Device, error) {
	f, err := os.Open("/proc/asound/pcm")
	if err != nil {
		return nil, errors.Wrap(err, "failed to open pcm")
	}
	defer f.Close()

	var devices []input.Device

	var scanner = bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		// Playback-only devices cannot be opened for capture.
		if !strings.Contains(line, "capture") {
			continue
		}

		prefix := strings.Split(line, ":")[0]

		d, err := ParseALSADevice(prefix)
		if err != nil {
			return nil, fmt.Errorf("failed to parse device %q: %w", prefix, err)
		}

		devices = append(devices, d)
	}

	return devices, scanner.Err()
}

func (p ALSA) DefaultDevice() (input.Device, error) {
	return ALSADevice("default"), nil
}

func (p ALSA) Start(ctx context.Context, cfg input.SessionConfig) (input.Session, error) {
	dv, ok := cfg.Device.(ALSADevice)
	if !ok {
		return nil, fmt.Errorf("invalid device type %T", cfg.Device)
	}

	return Start(ctx, dv, cfg)
}

// ALSADevice is an ALSA device name such as hw:0,1 or default.
type ALSADevice string

// ParseALSADevice parses the NN-NN prefix of a /proc/asound/pcm line.
func ParseALSADevice(hwString string) (ALSADevice, error) {
	nparts := strings.Split(strings.TrimSpace(hwString), "-")
	alsadv := "hw"

	if len(nparts) == 0 || len(nparts) > 2 {
		return "", fmt.Errorf("mismatch alsa format")
	}

	for i, part := range nparts {
		// Trim prefixed zeros.
		part = strings.TrimLeft(part, "0")
		if part == "" {
			part = "0"
		}

		switch i {
		case 0:
			alsadv += ":" + part
		case 1:
			alsadv += "," + part
		}
	}

	return ALSADevice(alsadv), nil
}

func (d ALSADevice) InputArgs() []string {
	return []string{"-f", "alsa", "-i", string(d)}
}

func (d ALSADevice) String() string {
	return string(d)
}
