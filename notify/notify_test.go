package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/noriah/whisker/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertyBody(t *testing.T) {
	assert.JSONEq(t, `[{"value": true}]`, string(PropertyBody(true)))
	assert.JSONEq(t, `[{"value": 14}]`, string(PropertyBody(14)))
}

type recorder struct {
	calls []string
}

func (r *recorder) ActivityChanged(active bool) {
	if active {
		r.calls = append(r.calls, "on")
	} else {
		r.calls = append(r.calls, "off")
	}
}

func (r *recorder) ActivityDuration(int) {
	r.calls = append(r.calls, "duration")
}

func TestMultiFansOut(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	m := Multi{a, b, NewLog(logging.NewNop())}

	m.ActivityChanged(true)
	m.ActivityChanged(false)
	m.ActivityDuration(3)

	want := []string{"on", "off", "duration"}
	assert.Equal(t, want, a.calls)
	assert.Equal(t, want, b.calls)
}

type published struct {
	topic   string
	qos     byte
	retain  bool
	payload []byte
}

type fakeToken struct{ done chan struct{} }

func newDoneToken() *fakeToken {
	t := &fakeToken{done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return nil }

type fakePublisher struct {
	mu  sync.Mutex
	out []published
}

func (p *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.out = append(p.out, published{topic, qos, retained, payload.([]byte)})
	return newDoneToken()
}

func TestMQTTPublishesProperties(t *testing.T) {
	pub := &fakePublisher{}
	cfg := MQTTConfig{ThingID: "U3x", QoS: 1, Retain: true}
	m := newMQTT(cfg, pub, logging.NewNop())

	m.ActivityChanged(true)
	m.ActivityChanged(false)
	m.ActivityDuration(14)

	require.Len(t, pub.out, 3)

	assert.Equal(t, "thngs/U3x/properties/in_use", pub.out[0].topic)
	assert.JSONEq(t, `[{"value": true}]`, string(pub.out[0].payload))
	assert.Equal(t, byte(1), pub.out[0].qos)
	assert.True(t, pub.out[0].retain)

	assert.JSONEq(t, `[{"value": false}]`, string(pub.out[1].payload))

	assert.Equal(t, "thngs/U3x/properties/last_use", pub.out[2].topic)
	assert.JSONEq(t, `[{"value": 14}]`, string(pub.out[2].payload))

	assert.NoError(t, m.Close())
}

func TestDialMQTTValidates(t *testing.T) {
	_, err := DialMQTT(MQTTConfig{Broker: "tcp://localhost:1883"}, nil)
	assert.Error(t, err)
}

type request struct {
	method string
	path   string
	auth   string
	ctype  string
	body   []PropertyValue
}

func TestHTTPPutsProperties(t *testing.T) {
	reqs := make(chan request, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		var body []PropertyValue
		json.Unmarshal(data, &body)
		reqs <- request{r.Method, r.URL.Path, r.Header.Get("Authorization"), r.Header.Get("Content-Type"), body}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	h, err := NewHTTP(context.Background(), HTTPConfig{
		BaseURL: srv.URL + "/",
		ThingID: "U3x",
		APIKey:  "secret",
	}, logging.NewNop())
	require.NoError(t, err)

	h.ActivityChanged(true)
	h.ActivityDuration(7)
	require.NoError(t, h.Close())

	// updates after close are dropped
	h.ActivityChanged(false)

	require.Len(t, reqs, 2)

	first := <-reqs
	assert.Equal(t, http.MethodPut, first.method)
	assert.Equal(t, "/thngs/U3x/properties", first.path)
	assert.Equal(t, "secret", first.auth)
	assert.Equal(t, "application/json", first.ctype)
	require.Len(t, first.body, 1)
	assert.Equal(t, "in_use", first.body[0].Key)
	assert.Equal(t, true, first.body[0].Value)

	second := <-reqs
	assert.Equal(t, "last_use", second.body[0].Key)
	assert.EqualValues(t, 7, second.body[0].Value)
}

func TestHTTPFailureIsNotFatal(t *testing.T) {
	var hits int
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	h, err := NewHTTP(context.Background(), HTTPConfig{BaseURL: srv.URL, ThingID: "x"}, logging.NewNop())
	require.NoError(t, err)

	h.ActivityChanged(true)
	h.ActivityChanged(false)
	require.NoError(t, h.Close())

	assert.Equal(t, 2, hits)
}

func TestHTTPConfig(t *testing.T) {
	cfg := HTTPConfig{BaseURL: "https://api.evrythng.com/", ThingID: "abc"}
	assert.Equal(t, "https://api.evrythng.com/thngs/abc/properties", cfg.URL())

	_, err := NewHTTP(context.Background(), HTTPConfig{}, nil)
	assert.Error(t, err)
}
