// Package notify delivers activity episodes to the outside world: the log,
// an MQTT broker and an HTTP property endpoint.
package notify

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/noriah/whisker/detect"
	"github.com/noriah/whisker/logging"
)

// Property names published for every episode.
const (
	PropertyInUse   = "in_use"
	PropertyLastUse = "last_use"
)

// PropertyValue is one entry of a property update body.
type PropertyValue struct {
	Key   string `json:"key,omitempty"`
	Value any    `json:"value"`
}

// PropertyBody encodes the single-value update body [{"value": v}].
func PropertyBody(v any) []byte {
	// encoding a bool or an int never fails
	b, _ := json.Marshal([]PropertyValue{{Value: v}})
	return b
}

// Multi fans every event out to all of its listeners in order.
type Multi []detect.Listener

func (m Multi) ActivityChanged(active bool) {
	for _, l := range m {
		l.ActivityChanged(active)
	}
}

func (m Multi) ActivityDuration(seconds int) {
	for _, l := range m {
		l.ActivityDuration(seconds)
	}
}

// Log writes episodes to a logger, tagging each one with a fresh id.
type Log struct {
	log     logging.Logger
	now     func() time.Time
	episode string
	started time.Time
}

// NewLog returns a Log notifier. A nil logger uses the global one.
func NewLog(l logging.Logger) *Log {
	return &Log{
		log: logging.OrGlobal(l).WithFields(logging.Fields{"component": "notify"}),
		now: time.Now,
	}
}

func (l *Log) ActivityChanged(active bool) {
	if active {
		l.episode = uuid.NewString()
		l.started = l.now()
		l.log.Info("activity started", logging.Fields{"episode": l.episode})
		return
	}

	l.log.Info("activity ended", logging.Fields{
		"episode":  l.episode,
		"wall_for": l.now().Sub(l.started).String(),
	})
}

func (l *Log) ActivityDuration(seconds int) {
	l.log.Info("activity duration", logging.Fields{
		"episode": l.episode,
		"seconds": seconds,
	})
	l.episode = ""
}
