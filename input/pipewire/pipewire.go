package pipewire

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/google/uuid"
	"github.com/noriah/whisker/input"
	"github.com/noriah/whisker/input/common/execread"
	"github.com/pkg/errors"
)

func init() {
	input.RegisterBackend("pipewire", Backend{})
}

type Backend struct{}

func (p Backend) Init() error {
	return nil
}

func (p Backend) Close() error {
	return nil
}

func (p Backend) Devices() ([]input.Device, error) {
	pwObjs, err := pwDump(context.Background())
	if err != nil {
		return nil, err
	}

	pwSources := pwObjs.Filter(isCaptureNode)

	devices := make([]input.Device, len(pwSources))
	for i, device := range pwSources {
		devices[i] = AudioDevice{device.Info.Props.NodeName}
	}

	return devices, nil
}

func (p Backend) DefaultDevice() (input.Device, error) {
	return AudioDevice{"auto"}, nil
}

func (p Backend) Start(ctx context.Context, cfg input.SessionConfig) (input.Session, error) {
	args, err := recordArgs(cfg, needRawArg)
	if err != nil {
		return nil, err
	}

	s := execread.NewSession(args, true)
	s.DisconnectedStderr = true
	if err := s.Start(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

type AudioDevice struct {
	name string
}

func (d AudioDevice) String() string {
	return d.name
}

func isCaptureNode(o pwObject) bool {
	return o.Type == pwInterfaceNode &&
		(o.Info.Props.MediaClass == pwAudioSource ||
			o.Info.Props.MediaClass == pwAudioSink)
}

type whiskerProps struct {
	ApplicationName string `json:"application.name"`
	SessionID       string `json:"whisker.session"`
}

func recordArgs(cfg input.SessionConfig, rawArg func() (bool, error)) ([]string, error) {
	dv, ok := cfg.Device.(AudioDevice)
	if !ok {
		return nil, fmt.Errorf("invalid device type %T", cfg.Device)
	}

	if cfg.SampleRate <= 0 {
		return nil, errors.New("sample rate must be positive")
	}

	propsJSON, err := json.Marshal(whiskerProps{
		ApplicationName: "whisker",
		SessionID:       uuid.NewString(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal props")
	}

	args := []string{
		"pw-cat",
		"--record",
		"--format", "f32",
		"--rate", fmt.Sprintf("%.0f", cfg.SampleRate),
		"--channels", "1",
		"--target", dv.name,
		"--media-category", "Capture",
		"--media-role", "DSP",
		"--properties", string(propsJSON),
	}

	useRaw, err := rawArg()
	if err != nil {
		return nil, errors.Wrap(err, "failed to check need of pipewire '--raw' arg")
	}

	if useRaw {
		args = append(args, "--raw")
	}

	// output to STDOUT
	return append(args, "-"), nil
}

// pw-cat 1.4.0 introduces explicit stdout support, needing --raw.
func needRawArg() (bool, error) {
	out, err := exec.Command("pw-cat", "--version").Output()
	if err != nil {
		return false, err
	}

	return rawArgForVersion(string(out)), nil
}

func rawArgForVersion(out string) bool {
	for _, line := range strings.Split(out, "\n") {
		idx := strings.Index(line, "libpipewire ")
		if idx < 0 {
			continue
		}

		var major, minor int
		if _, err := fmt.Sscanf(line[idx:], "libpipewire %d.%d", &major, &minor); err != nil {
			return false
		}

		return major > 1 || (major == 1 && minor >= 4)
	}

	return false
}
