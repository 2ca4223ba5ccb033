package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"aqlink/internal/uplink"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type Subscriber struct {
	client    mqtt.Client
	opts      Options
	logger    *slog.Logger
	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once

	// MessageHandler is called for each valid uplink envelope
	MessageHandler func(env uplink.Envelope) error
}

// UplinkSubscriber interface for attaching message handlers
type UplinkSubscriber interface {
	SetMessageHandler(handler func(env uplink.Envelope) error)
}

// SetMessageHandler sets the handler called for each valid uplink.
func (s *Subscriber) SetMessageHandler(handler func(env uplink.Envelope) error) {
	s.MessageHandler = handler
}

func NewSubscriber(opts Options, logger *slog.Logger) (*Subscriber, error) {
	s := &Subscriber{
		opts:   opts,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	o := mqtt.NewClientOptions()
	o.AddBroker(fmt.Sprintf("tcp://%s:%d", opts.Broker, opts.Port))
	o.SetClientID(opts.ClientID)

	// Session settings
	o.SetCleanSession(true)

	o.SetAutoReconnect(true)
	o.SetConnectRetry(true)
	o.SetConnectRetryInterval(5 * time.Second)
	o.SetMaxReconnectInterval(60 * time.Second)

	// Keepalive / timeouts
	o.SetKeepAlive(30 * time.Second)
	o.SetPingTimeout(10 * time.Second)

	// Callbacks keep internal state accurate
	o.SetOnConnectHandler(func(_ mqtt.Client) {
		s.setConnected(true)
		logger.Info("mqtt connected", "broker", opts.Broker, "port", opts.Port)
	})

	o.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		s.setConnected(false)
		logger.Warn("mqtt connection lost", "error", err)
	})

	s.client = mqtt.NewClient(o)
	return s, nil
}

// Connect establishes connection to the MQTT broker and subscribes to
// the uplink topic for every device.
func (s *Subscriber) Connect(ctx context.Context) error {
	// Fail fast if already stopped.
	select {
	case <-s.stopCh:
		return fmt.Errorf("subscriber stopped")
	default:
	}

	// Fast path.
	if s.IsConnected() {
		return nil
	}

	// Start connect attempt.
	token := s.client.Connect()

	// Wait in a ctx/stop-aware loop.
	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			// OnConnectHandler sets connected=true.
			break
		}

		select {
		case <-ctx.Done():
			s.client.Disconnect(0)
			return ctx.Err()
		case <-s.stopCh:
			s.client.Disconnect(0)
			return fmt.Errorf("subscriber stopped")
		default:
		}
	}

	if err := s.subscribe(); err != nil {
		s.client.Disconnect(0)
		return fmt.Errorf("subscribe: %w", err)
	}

	return nil
}

func (s *Subscriber) subscribe() error {
	if !s.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}

	topic := uplink.SubscribeTopic()
	qos := byte(1) // At least once delivery

	messageHandler := func(client mqtt.Client, msg mqtt.Message) {
		s.handleMessage(msg.Topic(), msg.Payload())
	}

	token := s.client.Subscribe(topic, qos, messageHandler)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("subscribe timeout for topic %s", topic)
	}
	if token.Error() != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, token.Error())
	}

	s.logger.Info("subscribed to mqtt topic", "topic", topic, "qos", qos)
	return nil
}

func (s *Subscriber) handleMessage(topic string, payload []byte) {
	s.logger.Debug("received mqtt message", "topic", topic, "size", len(payload))

	var env uplink.Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		s.logger.Warn("failed to parse uplink envelope",
			"topic", topic,
			"error", err,
			"payload", string(payload),
		)
		return
	}

	// The topic is authoritative for the device id; a mismatched
	// envelope is dropped rather than trusted.
	if id := uplink.DeviceIDFromTopic(topic); id != "" && env.DeviceID != "" && id != env.DeviceID {
		s.logger.Warn("uplink device id does not match topic",
			"topic", topic,
			"device_id", env.DeviceID,
		)
		return
	}

	if err := env.Validate(); err != nil {
		s.logger.Warn("invalid uplink envelope",
			"topic", topic,
			"device_id", env.DeviceID,
			"error", err,
		)
		return
	}

	if s.MessageHandler != nil {
		if err := s.MessageHandler(env); err != nil {
			s.logger.Error("message handler failed",
				"topic", topic,
				"device_id", env.DeviceID,
				"error", err,
			)
		} else {
			s.logger.Debug("processed uplink",
				"device_id", env.DeviceID,
				"sent_at", env.SentAt,
			)
		}
	}
}

// IsConnected returns whether the client is connected.
func (s *Subscriber) IsConnected() bool {
	s.mu.RLock()
	connected := s.connected
	s.mu.RUnlock()
	return connected && s.client.IsConnected()
}

// Disconnect stops the subscriber and closes the MQTT connection.
// Idempotent and safe to call multiple times.
func (s *Subscriber) Disconnect() {
	// Signal shutdown once (unblocks any Connect loops).
	s.stopOnce.Do(func() { close(s.stopCh) })

	// Unsubscribe before disconnecting
	if s.client != nil && s.IsConnected() {
		token := s.client.Unsubscribe(uplink.SubscribeTopic())
		token.WaitTimeout(2 * time.Second)
	}

	// Disconnect without holding s.mu to avoid lock contention/deadlocks.
	if s.client != nil {
		s.client.Disconnect(250)
	}

	s.setConnected(false)
	s.logger.Info("mqtt subscriber disconnected")
}

func (s *Subscriber) setConnected(v bool) {
	s.mu.Lock()
	s.connected = v
	s.mu.Unlock()
}
