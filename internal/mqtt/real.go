package mqtt

import (
	"fmt"
	"log/slog"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/chaz8081/timeflip-logger/internal/intervals"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// client is the subset of paho.Client the publisher needs.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// Options configures a Publisher.
type Options struct {
	Broker   string
	Topic    string
	ClientID string
}

// Publisher mirrors interval transitions to MQTT. It implements
// intervals.Observer.
type Publisher struct {
	client client
	prefix string
}

// NewPublisher connects to the broker. If the broker is unreachable within
// the connect timeout the client keeps retrying in the background and
// queues messages until it connects.
func NewPublisher(opts Options) (*Publisher, error) {
	if opts.ClientID == "" {
		opts.ClientID = "timeflip-logger"
	}
	statusTopic := Topic(opts.Topic, SuffixStatus)

	co := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(statusTopic, "offline", 1, true).
		SetOnConnectHandler(func(c paho.Client) {
			slog.Info("[MQTT] connected", "broker", opts.Broker)
			c.Publish(statusTopic, 1, true, "online")
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			slog.Warn("[MQTT] connection lost", "error", err)
		})

	c := paho.NewClient(co)
	token := c.Connect()
	if !token.WaitTimeout(connectTimeout) {
		slog.Warn("[MQTT] broker not reachable yet, retrying in background", "broker", opts.Broker)
	} else if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt: connect to broker: %w", err)
	}

	return newPublisher(c, opts.Topic), nil
}

func newPublisher(c client, prefix string) *Publisher {
	if prefix == "" {
		prefix = DefaultTopic
	}
	return &Publisher{client: c, prefix: prefix}
}

// IntervalStarted publishes the current activity as a retained message.
func (p *Publisher) IntervalStarted(session string, start time.Time, activity string) error {
	payload, err := FormatActivityPayload(session, start, activity)
	if err != nil {
		return fmt.Errorf("mqtt: format activity payload: %w", err)
	}
	return p.publish(Topic(p.prefix, SuffixActivity), 1, true, payload)
}

// IntervalClosed publishes a finished interval.
func (p *Publisher) IntervalClosed(iv intervals.Interval) error {
	payload, err := FormatIntervalPayload(iv.SessionID, iv.Start, iv.End, iv.Activity, iv.Seconds())
	if err != nil {
		return fmt.Errorf("mqtt: format interval payload: %w", err)
	}
	return p.publish(Topic(p.prefix, SuffixIntervals), 1, false, payload)
}

func (p *Publisher) publish(topic string, qos byte, retained bool, payload []byte) error {
	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("mqtt: publish to %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt: publish to %s: %w", topic, err)
	}
	return nil
}

// Close announces "offline" and disconnects from the broker.
func (p *Publisher) Close() error {
	token := p.client.Publish(Topic(p.prefix, SuffixStatus), 1, true, "offline")
	token.WaitTimeout(publishTimeout)
	p.client.Disconnect(1000) // 1 second quiesce
	return nil
}

var _ intervals.Observer = (*Publisher)(nil)
