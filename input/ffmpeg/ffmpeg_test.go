package ffmpeg

import (
	"context"
	"testing"

	"github.com/noriah/whisker/input"
	"github.com/noriah/whisker/input/parec"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseALSADevice(t *testing.T) {
	cases := []struct {
		in   string
		want ALSADevice
		err  bool
	}{
		{"00-00", "hw:0,0", false},
		{"01-10", "hw:1,10", false},
		{"02", "hw:2", false},
		{"1-2-3", "", true},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseALSADevice(tc.in)
			if tc.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestArgsAreMonoF64(t *testing.T) {
	args := Args(ALSADevice("hw:1,0"), input.SessionConfig{SampleRate: 8000})

	assert.Equal(t, "ffmpeg", args[0])
	assert.Contains(t, args, "hw:1,0")
	assert.Equal(t, []string{"-ar", "8000", "-ac", "1", "-f", "f64le", "-"}, args[len(args)-7:])
}

func TestDeviceInputArgs(t *testing.T) {
	cases := []struct {
		name string
		dev  Device
		want []string
	}{
		{"alsa", ALSADevice("default"), []string{"-f", "alsa", "-i", "default"}},
		{"pulse", parec.PulseDevice("mic.monitor"), []string{"-f", "pulse", "-i", "mic.monitor"}},
		{"sndio", SndioDevice("/dev/audio1"), []string{"-f", "sndio", "-i", "/dev/audio1"}},
		{"avfoundation default", AVFoundationDevice{-1, "default"}, []string{"-f", "avfoundation", "-i", "none:default"}},
		{"avfoundation index", AVFoundationDevice{2, "USB"}, []string{"-f", "avfoundation", "-i", "none:2"}},
		{"dshow", DShowDevice{"Microphone"}, []string{"-f", "dshow", "-audio_buffer_size", "20", "-i", "audio=Microphone"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.dev.InputArgs())

			args := Args(tc.dev, input.SessionConfig{SampleRate: 8000})
			assert.Equal(t, tc.want, args[4:4+len(tc.want)])
			assert.Equal(t, []string{"-ac", "1", "-f", "f64le", "-"}, args[len(args)-5:])
		})
	}
}

func TestPulseBackendRegistered(t *testing.T) {
	names := input.GetAllBackendNames()
	assert.Contains(t, names, "ffmpeg-pulse")
	assert.Contains(t, names, "ffmpeg-sndio")
	assert.Contains(t, names, "ffmpeg-alsa")

	_, err := Pulse{}.Start(context.Background(), input.SessionConfig{Device: SndioDevice("/dev/audio0")})
	assert.Error(t, err)
}

func TestSndioDevices(t *testing.T) {
	s := Sndio{glob: func(string) ([]string, error) {
		return []string{"/dev/audio0", "/dev/audio1"}, nil
	}}

	devices, err := s.Devices()
	require.NoError(t, err)
	assert.Equal(t, []input.Device{SndioDevice("/dev/audio0"), SndioDevice("/dev/audio1")}, devices)

	s.glob = func(string) ([]string, error) { return nil, errors.New("bad pattern") }
	_, err = s.Devices()
	assert.Error(t, err)
}

func TestParseAVFoundationDevices(t *testing.T) {
	out := []byte(`[AVFoundation indev @ 0x7f] AVFoundation video devices:
[AVFoundation indev @ 0x7f] [0] FaceTime HD Camera
[AVFoundation indev @ 0x7f] AVFoundation audio devices:
[AVFoundation indev @ 0x7f] [0] MacBook Pro Microphone
[AVFoundation indev @ 0x7f] [1] USB Audio
: Input/output error
`)

	devices, err := parseAVFoundationDevices(out)
	require.NoError(t, err)
	assert.Equal(t, []input.Device{
		AVFoundationDevice{0, "MacBook Pro Microphone"},
		AVFoundationDevice{1, "USB Audio"},
	}, devices)

	_, err = parseAVFoundationDevices([]byte("ffmpeg: command not found"))
	assert.Error(t, err)
}

func TestParseDShowDevices(t *testing.T) {
	out := []byte(`[dshow @ 000001] "Integrated Camera" (video)
[dshow @ 000001]   Alternative name "@device_pnp_camera"
[dshow @ 000001] "Microphone Array (Realtek)" (audio)
[dshow @ 000001]   Alternative name "@device_cm_mic"
`)

	devices, err := parseDShowDevices(out)
	require.NoError(t, err)
	assert.Equal(t, []input.Device{DShowDevice{"Microphone Array (Realtek)"}}, devices)

	_, err = parseDShowDevices(nil)
	assert.Error(t, err)
}
