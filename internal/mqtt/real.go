package mqtt

import (
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
	"github.com/google/uuid"
)

// ErrNotConnected is returned when publishing while the broker is unreachable.
var ErrNotConnected = errors.New("mqtt: not connected")

// ClientConfig configures a Client.
type ClientConfig struct {
	Broker   string
	ClientID string // empty derives "taskcore-<random>"
	Topics   Topics
	Codec    Codec

	// ConnectTimeout bounds the wait for the first connection.
	// Zero means DefaultConnectTimeout.
	ConnectTimeout time.Duration
}

// DefaultConnectTimeout is how long NewClient waits for the broker.
const DefaultConnectTimeout = 10 * time.Second

// Client publishes to an actual MQTT broker and feeds received commands to a
// CommandHandler.
type Client struct {
	client paho.Client
	topics Topics
	codec  Codec
	cmds   *CommandHandler
	now    func() time.Time
}

// NewClient connects to the broker and waits for the first connection, so
// the caller can publish straight away. Later connection losses are retried
// in the background; publishing fails fast with ErrNotConnected until the
// broker is back. cmds may be nil.
func NewClient(cfg ClientConfig, cmds *CommandHandler) (*Client, error) {
	if cfg.Codec == nil {
		cfg.Codec = JSON
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "taskcore-" + uuid.NewString()[:8]
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	c := &Client{topics: cfg.Topics, codec: cfg.Codec, cmds: cmds, now: time.Now}

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOrderMatters(false).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			glog.Warningf("mqtt: connection lost: %v", err)
		})

	will, err := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "OFFLINE", Reason: "LWT"})
	if err != nil {
		glog.Warningf("mqtt: no will registered: %v", err)
	} else {
		opts.SetWill(cfg.Topics.System(), string(will), 1, true)
	}

	c.client = paho.NewClient(opts)
	// With connect retry the token completes only once a connection is up.
	token := c.client.Connect()
	if !token.WaitTimeout(cfg.ConnectTimeout) {
		c.client.Disconnect(0)
		return nil, fmt.Errorf("connect to %s: timeout after %v", cfg.Broker, cfg.ConnectTimeout)
	}
	if err := token.Error(); err != nil {
		c.client.Disconnect(0)
		return nil, fmt.Errorf("connect to %s: %w", cfg.Broker, err)
	}
	return c, nil
}

// onConnect runs on the first connection and every reconnection.
// Subscriptions are renewed since the session is clean.
func (c *Client) onConnect(client paho.Client) {
	glog.Infof("mqtt: connected")
	if c.cmds == nil {
		return
	}
	for _, topic := range c.cmds.Topics() {
		token := client.Subscribe(topic, 1, c.handleCommand)
		go func(topic string, token paho.Token) {
			if token.WaitTimeout(5*time.Second) && token.Error() == nil {
				glog.V(1).Infof("mqtt: subscribed %s", topic)
				return
			}
			glog.Warningf("mqtt: subscribe %s failed: %v", topic, token.Error())
		}(topic, token)
	}
}

func (c *Client) handleCommand(_ paho.Client, m paho.Message) {
	res := c.cmds.Handle(m.Topic(), m.Payload())
	payload, err := c.codec.Marshal(res)
	if err != nil {
		glog.Errorf("mqtt: encode command result: %v", err)
		return
	}
	// Fire and forget: waiting on a token inside a message handler can stall
	// the paho router.
	c.client.Publish(c.topics.CmdResult(), 0, false, payload)
}

// IsConnected implements ConnectionStatus.
func (c *Client) IsConnected() bool {
	return c.client.IsConnectionOpen()
}

// PublishState sends a state value to the broker, retained so late
// subscribers see the current value.
func (c *Client) PublishState(kind string, value any) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	payload, err := FormatStatePayload(c.codec, kind, value, c.now())
	if err != nil {
		return fmt.Errorf("format state payload: %w", err)
	}

	// QoS 0 (at-most-once): the next change supersedes a lost update.
	token := c.client.Publish(c.topics.State(kind), 0, true, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (c *Client) PublishSystem(event SystemEvent) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) for lifecycle events - we want to ensure delivery
	token := c.client.Publish(c.topics.System(), 1, event.Retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish system timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish system: %w", err)
	}
	return nil
}

// Close disconnects from the broker.
func (c *Client) Close() error {
	c.client.Disconnect(1000) // 1 second timeout
	return nil
}
