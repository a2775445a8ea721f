// Package execread reads little-endian floating-point samples from a child
// process or any other byte stream, one sample per Acquire.
package execread

import (
	"bufio"
	"context"
	"encoding/binary"
	"io"
	"math"
	"os"
	"os/exec"

	"github.com/pkg/errors"
)

// Session reads floating-point audio values from a stream.
type Session struct {
	// OnStart is called after the child process starts. Nil by default.
	OnStart func(ctx context.Context, cmd *exec.Cmd) error

	// prevents cmd.Stderr from pointing to os.Stderr. false by default.
	DisconnectedStderr bool

	reader *bufio.Reader
	raw    []byte
	order  binary.ByteOrder
	f64    bool

	cmd    *exec.Cmd
	closer io.Closer
}

// NewSession creates a session that will run argv. Nothing is started until
// Start is called.
func NewSession(argv []string, f32mode bool) *Session {
	if len(argv) < 1 {
		panic("argv has no arg0")
	}

	s := newSession(f32mode)
	s.cmd = exec.Command(argv[0], argv[1:]...)
	return s
}

// FromReader wraps an already open stream. Closing the session closes r if it
// is an io.Closer.
func FromReader(r io.Reader, f32mode bool) *Session {
	s := newSession(f32mode)
	s.reader = bufio.NewReader(r)
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s
}

func newSession(f32mode bool) *Session {
	width := 8
	if f32mode {
		width = 4
	}

	return &Session{
		raw:   make([]byte, width),
		order: binary.LittleEndian,
		f64:   !f32mode,
	}
}

// Start launches the child process. The process is killed when ctx is done
// or the session is closed.
func (s *Session) Start(ctx context.Context) error {
	if s.cmd == nil {
		return errors.New("session has no command")
	}

	cmd := exec.CommandContext(ctx, s.cmd.Path, s.cmd.Args[1:]...)
	if !s.DisconnectedStderr {
		cmd.Stderr = os.Stderr
	}

	o, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrap(err, "failed to get stdout pipe")
	}

	if err := cmd.Start(); err != nil {
		return errors.Wrap(err, "failed to start "+cmd.Path)
	}

	if s.OnStart != nil {
		if err := s.OnStart(ctx, cmd); err != nil {
			cmd.Process.Kill()
			cmd.Wait()
			return err
		}
	}

	s.cmd = cmd
	s.reader = bufio.NewReader(o)
	return nil
}

// Acquire blocks until one full sample has been read. It returns io.EOF when
// the stream ends cleanly.
func (s *Session) Acquire() (float64, error) {
	if s.reader == nil {
		return 0, errors.New("session not started")
	}

	if _, err := io.ReadFull(s.reader, s.raw); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, io.EOF
		}
		return 0, err
	}

	if s.f64 {
		return math.Float64frombits(s.order.Uint64(s.raw)), nil
	}

	return float64(math.Float32frombits(s.order.Uint32(s.raw))), nil
}

// Buffered reports true: samples come out of a read-ahead buffer.
func (s *Session) Buffered() bool {
	return true
}

// Close stops the child process or closes the wrapped stream.
func (s *Session) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}

	if s.cmd == nil || s.cmd.Process == nil {
		return nil
	}

	s.cmd.Process.Kill()
	// Wait reports the kill signal; that is the expected outcome here.
	s.cmd.Wait()
	return nil
}
