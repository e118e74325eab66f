// Package telemetry publishes altimeter readings to an MQTT broker.
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/itohio/goalt/pkg/altimeter"
	"github.com/itohio/goalt/pkg/altitude"
	"github.com/itohio/goalt/pkg/config"
)

const (
	publishTimeout = 5 * time.Second
	queueSize      = 8

	statusOnline  = "online"
	statusOffline = "offline"
)

// ErrStopped is returned by Connect after Close.
var ErrStopped = errors.New("telemetry stopped")

// Message is the JSON payload published for a reading.
type Message struct {
	Timestamp  time.Time `json:"timestamp"`
	UptimeMs   int64     `json:"uptime_ms"`
	Pressure   float32   `json:"pressure_mbar"`
	Reference  float32   `json:"reference_mbar"`
	Raw        float32   `json:"raw_m"`
	Median     float32   `json:"median_m"`
	Altitude   float32   `json:"altitude_m"`
	AltitudeCm int       `json:"altitude_cm"`
	Zone       string    `json:"zone"`
	Alarm      bool      `json:"alarm"`
}

// NewMessage converts a reading to its payload.
func NewMessage(r altimeter.Reading) Message {
	return Message{
		Timestamp:  r.Timestamp,
		UptimeMs:   r.Uptime.Milliseconds(),
		Pressure:   r.Pressure,
		Reference:  r.Reference,
		Raw:        r.Raw,
		Median:     r.Median,
		Altitude:   r.Smoothed,
		AltitudeCm: altitude.Centimeters(r.Smoothed),
		Zone:       r.Zone.String(),
		Alarm:      r.Alarm,
	}
}

// publisher is the part of mqtt.Client used to send messages.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Publisher throttles readings and sends them from its own goroutine so the
// altimeter loop never waits on the network.
type Publisher struct {
	cfg    config.TelemetryConfig
	client mqtt.Client
	pub    publisher
	logger *slog.Logger

	queue chan Message

	// Owned by the goroutine calling Handle.
	sent     bool
	lastSent time.Duration
	lastZone string
	dropped  int

	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a Publisher with a paho client. Nothing connects until Connect.
func New(cfg config.TelemetryConfig, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "telemetry")

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetWill(StatusTopic(cfg.Topic), statusOffline, 1, true)

	opts.SetOnConnectHandler(func(c mqtt.Client) {
		logger.Info("mqtt connected", "broker", cfg.Broker)
		c.Publish(StatusTopic(cfg.Topic), 1, true, statusOnline)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", "error", err)
	})

	client := mqtt.NewClient(opts)
	p := newPublisher(cfg, client, logger)
	p.client = client
	return p
}

func newPublisher(cfg config.TelemetryConfig, pub publisher, logger *slog.Logger) *Publisher {
	return &Publisher{
		cfg:    cfg,
		pub:    pub,
		logger: logger,
		queue:  make(chan Message, queueSize),
		stopCh: make(chan struct{}),
	}
}

// StatusTopic is the retained online/offline topic next to topic.
func StatusTopic(topic string) string {
	return topic + "/status"
}

// Connect waits for the initial broker connection, respecting ctx and Close.
func (p *Publisher) Connect(ctx context.Context) error {
	select {
	case <-p.stopCh:
		return ErrStopped
	default:
	}
	if p.client == nil || p.client.IsConnected() {
		return nil
	}

	token := p.client.Connect()
	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.stopCh:
			return ErrStopped
		default:
		}
	}
}

// Handle queues r for publishing at most once per interval. A zone change is
// always published. It never blocks; readings are dropped when the queue is full.
func (p *Publisher) Handle(r altimeter.Reading) {
	zone := r.Zone.String()
	if p.sent && zone == p.lastZone && r.Uptime-p.lastSent < p.cfg.Interval {
		return
	}

	select {
	case p.queue <- NewMessage(r):
		p.sent = true
		p.lastSent = r.Uptime
		p.lastZone = zone
	default:
		p.dropped++
		if p.dropped == 1 || p.dropped%100 == 0 {
			p.logger.Warn("telemetry queue full, dropping reading", "dropped", p.dropped)
		}
	}
}

// Run publishes queued messages until ctx is done or Close is called.
func (p *Publisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case msg := <-p.queue:
			if err := p.publish(msg); err != nil {
				p.logger.Warn("publish failed", "error", err)
			}
		}
	}
}

func (p *Publisher) publish(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal telemetry: %w", err)
	}

	token := p.pub.Publish(p.cfg.Topic, 0, false, data)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout for topic %s", p.cfg.Topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish telemetry: %w", err)
	}

	p.logger.Debug("published", "topic", p.cfg.Topic, "altitude_cm", msg.AltitudeCm, "zone", msg.Zone)
	return nil
}

// Close stops Run and disconnects. It is safe to call more than once.
func (p *Publisher) Close() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
		if p.client != nil {
			if p.client.IsConnected() {
				p.client.Publish(StatusTopic(p.cfg.Topic), 1, true, statusOffline).WaitTimeout(time.Second)
			}
			p.client.Disconnect(250)
		}
		p.logger.Info("telemetry stopped")
	})
}
