// internal/writer/thingsboard/client.go
package thingsboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// Gateway API topics.
const (
	TopicConnect    = "v1/gateway/connect"
	TopicTelemetry  = "v1/gateway/telemetry"
	TopicAttributes = "v1/gateway/attributes"
)

// Config is minimal transport config.
type Config struct {
	Host     string
	Port     int
	Token    string // gateway access token, sent as MQTT username
	ClientID string
	Timeout  time.Duration
	QoS      byte
}

// publisher is the part of mqtt.Client the gateway uses.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// Client publishes on behalf of one device per site through the
// ThingsBoard gateway MQTT API.
type Client struct {
	pub     publisher
	qos     byte
	timeout time.Duration

	mu        sync.Mutex
	connected map[string]bool
}

// New creates a connected gateway client.
func New(cfg Config) (*Client, error) {
	if cfg.Host == "" {
		return nil, errors.New("thingsboard: host required")
	}
	if cfg.Port <= 0 {
		cfg.Port = 1883
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "scombridge-" + uuid.NewString()
	}

	c := &Client{
		qos:       cfg.QoS,
		timeout:   cfg.Timeout,
		connected: map[string]bool{},
	}

	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port)).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Token).
		SetConnectTimeout(cfg.Timeout).
		SetWriteTimeout(cfg.Timeout).
		SetAutoReconnect(true).
		SetOnConnectHandler(func(mqtt.Client) {
			// Device sessions do not survive a broker reconnect.
			c.resetDevices()
		})

	mc := mqtt.NewClient(opts)
	tok := mc.Connect()
	if !tok.WaitTimeout(cfg.Timeout) {
		return nil, fmt.Errorf("thingsboard: connect %s:%d: timeout", cfg.Host, cfg.Port)
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("thingsboard: connect %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	c.pub = mc
	return c, nil
}

func newWithPublisher(pub publisher, timeout time.Duration) *Client {
	return &Client{
		pub:       pub,
		timeout:   timeout,
		connected: map[string]bool{},
	}
}

// Close disconnects from the broker.
func (c *Client) Close() {
	if c == nil || c.pub == nil {
		return
	}
	c.pub.Disconnect(250)
}

// ConnectDevice announces a site device to the gateway. Once per session.
func (c *Client) ConnectDevice(site string) error {
	c.mu.Lock()
	done := c.connected[site]
	c.mu.Unlock()
	if done {
		return nil
	}

	if err := c.publish(TopicConnect, map[string]string{"device": site}); err != nil {
		return err
	}

	c.mu.Lock()
	c.connected[site] = true
	c.mu.Unlock()
	return nil
}

type telemetryPoint struct {
	TS     int64              `json:"ts"`
	Values map[string]float64 `json:"values"`
}

// PublishTelemetry sends one timestamped sample for a site device.
func (c *Client) PublishTelemetry(site string, tsMillis int64, values map[string]float64) error {
	if err := c.ConnectDevice(site); err != nil {
		return err
	}

	payload := map[string][]telemetryPoint{
		site: {{TS: tsMillis, Values: values}},
	}
	return c.publish(TopicTelemetry, payload)
}

// PublishAttributes sends client-side attributes for a site device.
func (c *Client) PublishAttributes(site string, attrs map[string]any) error {
	if err := c.ConnectDevice(site); err != nil {
		return err
	}
	return c.publish(TopicAttributes, map[string]map[string]any{site: attrs})
}

func (c *Client) publish(topic string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("thingsboard: encode %s: %w", topic, err)
	}

	tok := c.pub.Publish(topic, c.qos, false, b)
	if !tok.WaitTimeout(c.timeout) {
		return fmt.Errorf("thingsboard: publish %s: timeout", topic)
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("thingsboard: publish %s: %w", topic, err)
	}
	return nil
}

func (c *Client) resetDevices() {
	c.mu.Lock()
	c.connected = map[string]bool{}
	c.mu.Unlock()
}
