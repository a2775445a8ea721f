// Package control provides the training control: a level that can be flipped
// from any goroutine and is read once per frame by the processor.
package control

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"

	"github.com/noriah/whisker/logging"
)

// Toggle is a training level. The zero value is released.
type Toggle struct {
	held atomic.Bool
}

// Training reports whether training is held.
func (t *Toggle) Training() bool {
	return t.held.Load()
}

// Set holds or releases training.
func (t *Toggle) Set(held bool) {
	t.held.Store(held)
}

// Flip inverts the level and returns the new one.
func (t *Toggle) Flip() bool {
	for {
		old := t.held.Load()
		if t.held.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// FlipOnSignal flips t every time one of sigs arrives, until ctx is done.
// It blocks; run it in its own goroutine.
func FlipOnSignal(ctx context.Context, t *Toggle, log logging.Logger, sigs ...os.Signal) {
	log = logging.OrGlobal(log).WithFields(logging.Fields{"component": "control"})

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	defer signal.Stop(ch)

	flipOn(ctx, t, log, ch)
}

func flipOn(ctx context.Context, t *Toggle, log logging.Logger, ch <-chan os.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-ch:
			held := t.Flip()
			log.Info("training control flipped", logging.Fields{
				"signal":   sig.String(),
				"training": held,
			})
		}
	}
}
