// Package notify publishes customer-facing delivery notices. DELAY and
// RESCHEDULE decisions produce a NotificationEvent on the bus; the MQTT
// notifier forwards them to the broker topic downstream channels consume.
package notify

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kmehta07/lastmile/core/events"
	"github.com/kmehta07/lastmile/infra/logger"
	"github.com/kmehta07/lastmile/internal/eventbus"
)

// Config defines the connection parameters for the Paho MQTT notifier.
type Config struct {
	Enabled    bool        `json:"enabled" yaml:"enabled" koanf:"enabled"`
	Broker     string      `json:"broker" yaml:"broker" koanf:"broker"`
	ClientID   string      `json:"client_id" yaml:"client_id" koanf:"client_id"`
	Username   string      `json:"username" yaml:"username" koanf:"username"`
	Password   string      `json:"password" yaml:"password" koanf:"password"`
	Topic      string      `json:"topic" yaml:"topic" koanf:"topic"`
	QoS        byte        `json:"qos" yaml:"qos" koanf:"qos"`
	UseTLS     bool        `json:"use_tls" yaml:"use_tls" koanf:"use_tls"`
	ClientCert string      `json:"client_cert" yaml:"client_cert" koanf:"client_cert"`
	ClientKey  string      `json:"client_key" yaml:"client_key" koanf:"client_key"`
	CABundle   string      `json:"ca_bundle" yaml:"ca_bundle" koanf:"ca_bundle"`
	MaxRetries int         `json:"max_retries" yaml:"max_retries" koanf:"max_retries"`
	BackoffMS  int         `json:"backoff_ms" yaml:"backoff_ms" koanf:"backoff_ms"`
	TLSConfig  *tls.Config `json:"-" yaml:"-" koanf:"-"`
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// MQTTNotifier publishes notification events to a broker topic.
type MQTTNotifier struct {
	cli        pahoClient
	topic      string
	qos        byte
	log        logger.Logger
	maxRetries int
	backoff    time.Duration
}

// NewMQTTNotifier connects to the MQTT broker.
func NewMQTTNotifier(cfg Config) (*MQTTNotifier, error) {
	log := logger.New("mqtt-notifier")
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	opts.OnConnect = func(paho.Client) {
		log.Infof("MQTT connected")
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}

	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	backoff := time.Duration(cfg.BackoffMS) * time.Millisecond
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}
	topic := cfg.Topic
	if topic == "" {
		topic = "lastmile/notifications"
	}
	return &MQTTNotifier{
		cli:        c,
		topic:      topic,
		qos:        cfg.QoS,
		log:        log,
		maxRetries: maxRetries,
		backoff:    backoff,
	}, nil
}

// Notify publishes a single notification, retrying with exponential backoff.
func (n *MQTTNotifier) Notify(ev events.NotificationEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	var publishErr error
	for attempt := 0; attempt <= n.maxRetries; attempt++ {
		token := n.cli.Publish(n.topic, n.qos, false, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			n.log.Infof("sent %s notice for shipment %s", ev.Decision, ev.ShipmentID)
			return nil
		}
		n.log.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		time.Sleep(n.backoff * time.Duration(1<<attempt))
	}
	return publishErr
}

// Run consumes NotificationEvents from the bus until the context is
// cancelled or the bus closes. Intended to run in its own goroutine.
func (n *MQTTNotifier) Run(ctx context.Context, bus eventbus.EventBus) {
	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			notice, ok := ev.(events.NotificationEvent)
			if !ok {
				continue
			}
			if err := n.Notify(notice); err != nil {
				n.log.Errorf("notification for shipment %s dropped: %v", notice.ShipmentID, err)
			}
		}
	}
}

// Disconnect gracefully closes the MQTT connection.
func (n *MQTTNotifier) Disconnect() {
	if n.cli != nil && n.cli.IsConnected() {
		n.cli.Disconnect(250)
	}
}
