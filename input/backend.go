package input

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/pkg/errors"
)

type Backend interface {
	// Init should do nothing if called more than once.
	Init() error
	Close() error

	Devices() ([]Device, error)
	DefaultDevice() (Device, error)
	Start(context.Context, SessionConfig) (Session, error)
}

// DeviceParser is implemented by backends whose devices can be described by
// arbitrary strings rather than picked from a fixed list.
type DeviceParser interface {
	ParseDevice(string) (Device, error)
}

type NamedBackend struct {
	Name string
	Backend
}

var Backends []NamedBackend

// RegisterBackend registers a backend globally. This function is not
// thread-safe, and most packages should call it on init().
func RegisterBackend(name string, b Backend) {
	Backends = append(Backends, NamedBackend{
		Name:    name,
		Backend: b,
	})
}

// GetAllBackendNames returns all installed backend names.
func GetAllBackendNames() []string {
	out := make([]string, len(Backends))
	for i, backend := range Backends {
		out[i] = backend.Name
	}
	return out
}

// DefaultBackend picks a capture backend for the host. It falls back to the
// synthetic source when nothing else is usable.
func DefaultBackend() string {
	return defaultBackendFor(runtime.GOOS, exec.LookPath, HasBackend)
}

func defaultBackendFor(goos string, lookPath func(string) (string, error), has func(string) bool) string {
	onPath := func(bin string) bool {
		path, _ := lookPath(bin)
		return path != ""
	}

	switch goos {
	case "windows":
		if has("ffmpeg-dshow") {
			return "ffmpeg-dshow"
		}

	case "darwin":
		if has("ffmpeg-avfoundation") {
			return "ffmpeg-avfoundation"
		}

	case "openbsd":
		if has("ffmpeg-sndio") {
			return "ffmpeg-sndio"
		}

	case "linux":
		if onPath("pw-cat") && has("pipewire") {
			return "pipewire"
		}

		if onPath("parec") && has("parec") {
			return "parec"
		}

		if onPath("ffmpeg") {
			if has("ffmpeg-pulse") && onPath("pactl") {
				return "ffmpeg-pulse"
			}

			if has("ffmpeg-alsa") {
				return "ffmpeg-alsa"
			}
		}
	}

	if has("synth") {
		return "synth"
	}

	return ""
}

// FindBackend is a helper function that finds a backend. It returns nil if the
// backend is not found.
func FindBackend(name string) Backend {
	for _, backend := range Backends {
		if backend.Name == name {
			return backend.Backend
		}
	}
	return nil
}

func HasBackend(name string) bool {
	return FindBackend(name) != nil
}

func InitBackend(bknd string) (Backend, error) {
	backend := FindBackend(bknd)
	if backend == nil {
		return nil, fmt.Errorf("backend not found: %q; check list-backends", bknd)
	}

	if err := backend.Init(); err != nil {
		return nil, errors.Wrap(err, "failed to initialize input backend")
	}

	return backend, nil
}

func GetDevice(backend Backend, device string) (Device, error) {
	if device == "" {
		def, err := backend.DefaultDevice()
		if err != nil {
			return nil, errors.Wrap(err, "failed to get default device")
		}
		return def, nil
	}

	if p, ok := backend.(DeviceParser); ok {
		return p.ParseDevice(device)
	}

	devices, err := backend.Devices()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get devices")
	}

	for idx := range devices {
		if devices[idx].String() == device {
			return devices[idx], nil
		}
	}

	return nil, errors.Errorf("device %q not found; check list-devices", device)
}
