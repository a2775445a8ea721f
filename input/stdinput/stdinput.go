// Package stdinput reads mono float32le samples from standard input.
package stdinput

import (
	"context"
	"os"

	"github.com/noriah/whisker/input"
	"github.com/noriah/whisker/input/common/execread"
)

func init() {
	input.RegisterBackend("stdin", StdinBackend{})
}

type StdinBackend struct{}

func (b StdinBackend) Init() error {
	return nil
}

func (b StdinBackend) Close() error {
	return nil
}

func (b StdinBackend) Devices() ([]input.Device, error) {
	return []input.Device{StdInputDevice{}}, nil
}

func (b StdinBackend) DefaultDevice() (input.Device, error) {
	return StdInputDevice{}, nil
}

func (b StdinBackend) Start(_ context.Context, _ input.SessionConfig) (input.Session, error) {
	return execread.FromReader(os.Stdin, true), nil
}

type StdInputDevice struct{}

func (d StdInputDevice) String() string {
	return "stdin"
}
