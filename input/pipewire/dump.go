package pipewire

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"

	"github.com/pkg/errors"
)

type pwObjects []pwObject

func pwDump(ctx context.Context) (pwObjects, error) {
	cmd := exec.CommandContext(ctx, "pw-dump")
	cmd.Stderr = os.Stderr

	dumpOutput, err := cmd.Output()
	if err != nil {
		var execErr *exec.ExitError
		if errors.As(err, &execErr) {
			return nil, errors.Wrapf(err, "failed to run pw-dump: %s", execErr.Stderr)
		}
		return nil, errors.Wrap(err, "failed to run pw-dump")
	}

	var dump pwObjects
	if err := json.Unmarshal(dumpOutput, &dump); err != nil {
		return nil, errors.Wrap(err, "failed to parse pw-dump output")
	}

	return dump, nil
}

// Filter filters for the devices that satisfies f.
func (d pwObjects) Filter(fns ...func(pwObject) bool) pwObjects {
	filtered := make(pwObjects, 0, len(d))
loop:
	for _, device := range d {
		for _, f := range fns {
			if !f(device) {
				continue loop
			}
		}
		filtered = append(filtered, device)
	}
	return filtered
}

type pwObjectID int64

type pwObjectType string

const pwInterfaceNode pwObjectType = "PipeWire:Interface:Node"

type pwObject struct {
	ID   pwObjectID   `json:"id"`
	Type pwObjectType `json:"type"`
	Info struct {
		Props pwInfoProps `json:"props"`
	} `json:"info"`
}

type pwInfoProps struct {
	pwNodeProps
	MediaClass string `json:"media.class"`
}

type pwNodeProps struct {
	NodeName        string `json:"node.name"`
	NodeNick        string `json:"node.nick"`
	NodeDescription string `json:"node.description"`
}

// Constants for MediaClass.
const (
	pwAudioSource string = "Audio/Source"
	pwAudioSink   string = "Audio/Sink"
)
