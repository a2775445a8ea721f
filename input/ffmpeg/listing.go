package ffmpeg

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/noriah/whisker/input"
	"github.com/pkg/errors"
)

// listDevices runs ffmpeg's device listing for format. ffmpeg exits non-zero
// after listing, so only the output matters.
func listDevices(format string) []byte {
	cmd := exec.Command(
		"ffmpeg", "-hide_banner", "-loglevel", "info",
		"-f", format, "-list_devices", "true",
		"-i", "",
	)

	o, _ := cmd.CombinedOutput()
	return o
}

func noDevices(o []byte) error {
	// This is completely for visual.
	lines := strings.Split(string(o), "\n")
	for i, line := range lines {
		lines[i] = "\t" + line
	}

	return fmt.Errorf("no devices found; ffmpeg output:\n%s", strings.Join(lines, "\n"))
}

// AVFoundationDevice is an avfoundation audio device. Index -1 is the system
// default.
type AVFoundationDevice struct {
	Index int
	Name  string
}

func (d AVFoundationDevice) InputArgs() []string {
	input := "none:default"
	if d.Index > -1 {
		input = fmt.Sprintf("none:%d", d.Index)
	}
	return []string{"-f", "avfoundation", "-i", input}
}

func (d AVFoundationDevice) String() string {
	return fmt.Sprintf("%d:%s", d.Index, d.Name)
}

func parseAVFoundationDevices(o []byte) ([]input.Device, error) {
	var audio bool
	var devices []input.Device

	scanner := bufio.NewScanner(bytes.NewReader(o))
	for scanner.Scan() {
		text := scanner.Text()

		// Trim away the prefix.
		if strings.HasPrefix(text, "[AVFoundation") {
			parts := strings.SplitN(text, "] ", 2)
			if len(parts) == 2 {
				text = parts[1]
			}
		}

		if text == "AVFoundation audio devices:" {
			audio = true
			continue
		}

		// Device lines start with a square bracket.
		if !strings.HasPrefix(text, "[") {
			audio = false
			continue
		}

		if !audio {
			continue
		}

		parts := strings.SplitN(text, " ", 2)
		if len(parts) != 2 {
			continue
		}

		n, err := strconv.Atoi(strings.Trim(parts[0], "[]"))
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse device index")
		}

		devices = append(devices, AVFoundationDevice{Index: n, Name: parts[1]})
	}

	if len(devices) == 0 {
		return nil, noDevices(o)
	}

	return devices, nil
}

// DShowDevice is a DirectShow audio device name.
type DShowDevice struct {
	Name string
}

func (d DShowDevice) InputArgs() []string {
	return []string{"-f", "dshow", "-audio_buffer_size", "20", "-i", "audio=" + d.Name}
}

func (d DShowDevice) String() string {
	return d.Name
}

func parseDShowDevices(o []byte) ([]input.Device, error) {
	var devices []input.Device

	scanner := bufio.NewScanner(bytes.NewReader(o))
	for scanner.Scan() {
		text := scanner.Text()

		// Trim away the prefix and the opening quote.
		if strings.HasPrefix(text, "[dshow") {
			parts := strings.SplitN(text, "] ", 2)
			if len(parts) == 2 {
				text = strings.TrimPrefix(parts[1], "\"")
			}
		}

		parts := strings.SplitN(text, "\" (", 2)
		if len(parts) != 2 || !strings.HasPrefix(parts[1], "audio") {
			continue
		}

		devices = append(devices, DShowDevice{Name: parts[0]})
	}

	if len(devices) == 0 {
		return nil, noDevices(o)
	}

	return devices, nil
}
