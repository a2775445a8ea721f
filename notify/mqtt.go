package notify

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/noriah/whisker/logging"
	"github.com/pkg/errors"
)

// MQTTConfig configures the MQTT property publisher.
type MQTTConfig struct {
	Broker  string // e.g. ssl://mqtt.evrythng.com:443
	ThingID string
	APIKey  string
	QoS     byte
	Retain  bool
	// ConnectRetry is the delay between connection attempts.
	ConnectRetry time.Duration
	// PublishTimeout bounds the wait for a publish acknowledgement in the
	// background. Zero disables waiting.
	PublishTimeout time.Duration
}

// Topic returns the property topic for name.
func (c MQTTConfig) Topic(name string) string {
	return fmt.Sprintf("thngs/%s/properties/%s", c.ThingID, name)
}

// publisher is the part of mqtt.Client the notifier needs.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTT publishes in_use and last_use properties. Publishing never waits on
// the broker from the caller's goroutine.
type MQTT struct {
	cfg    MQTTConfig
	client publisher
	conn   mqtt.Client
	log    logging.Logger
}

// DialMQTT connects to the broker. The initial connection is retried in the
// background every cfg.ConnectRetry, so DialMQTT does not block on an
// unreachable broker.
func DialMQTT(cfg MQTTConfig, l logging.Logger) (*MQTT, error) {
	if cfg.Broker == "" || cfg.ThingID == "" {
		return nil, errors.New("mqtt needs a broker and a thing id")
	}

	if cfg.ConnectRetry <= 0 {
		cfg.ConnectRetry = 5 * time.Second
	}

	log := logging.OrGlobal(l).WithFields(logging.Fields{
		"component": "mqtt",
		"broker":    cfg.Broker,
	})

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID("whisker_" + uuid.NewString())
	if cfg.APIKey != "" {
		opts.SetUsername("authorization")
		opts.SetPassword(cfg.APIKey)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(cfg.ConnectRetry)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.Info("connected to broker")
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Error(err, "connection lost")
	})
	opts.SetReconnectingHandler(func(mqtt.Client, *mqtt.ClientOptions) {
		log.Warn("reconnecting to broker")
	})

	client := mqtt.NewClient(opts)
	// With ConnectRetry set the token completes only once connected, so it
	// is not waited on here.
	token := client.Connect()
	go func() {
		if token.Wait() && token.Error() != nil {
			log.Error(token.Error(), "failed to connect to broker")
		}
	}()

	m := newMQTT(cfg, client, log)
	m.conn = client
	return m, nil
}

func newMQTT(cfg MQTTConfig, client publisher, log logging.Logger) *MQTT {
	return &MQTT{cfg: cfg, client: client, log: log}
}

func (m *MQTT) ActivityChanged(active bool) {
	m.publish(PropertyInUse, active)
}

func (m *MQTT) ActivityDuration(seconds int) {
	m.publish(PropertyLastUse, seconds)
}

func (m *MQTT) publish(name string, v any) {
	topic := m.cfg.Topic(name)
	token := m.client.Publish(topic, m.cfg.QoS, m.cfg.Retain, PropertyBody(v))

	if m.cfg.PublishTimeout <= 0 {
		return
	}

	go func() {
		if !token.WaitTimeout(m.cfg.PublishTimeout) {
			m.log.Warn("publish not acknowledged", logging.Fields{"topic": topic})
			return
		}
		if err := token.Error(); err != nil {
			m.log.Error(err, "publish failed", logging.Fields{"topic": topic})
			return
		}
		m.log.Debug("property published", logging.Fields{"topic": topic, "value": v})
	}()
}

// Close disconnects from the broker, allowing in-flight messages a short
// grace period.
func (m *MQTT) Close() error {
	if m.conn != nil {
		m.conn.Disconnect(250)
	}
	return nil
}
