package mqtt

import (
	"fmt"
	"log"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// RealPublisher publishes to an actual MQTT broker. Messages published while
// the connection is down are kept in a backlog and replayed on reconnect.
type RealPublisher struct {
	client   paho.Client
	backlog  *backlog
	onStatus func(connected bool)
}

// NewRealPublisher starts connecting to broker in the background and returns
// immediately. onStatus, if non-nil, is called on every connect and
// connection loss.
func NewRealPublisher(broker string, onStatus func(connected bool)) *RealPublisher {
	p := &RealPublisher{
		backlog:  newBacklog(backlogSize),
		onStatus: onStatus,
	}

	will, _ := FormatSystemPayload(WillEvent(time.Now()))
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(TopicSystem, string(will), 1, true).
		SetOnConnectHandler(p.handleConnect).
		SetConnectionLostHandler(p.handleConnectionLost)

	p.client = paho.NewClient(opts)
	p.client.Connect()
	return p
}

func (p *RealPublisher) handleConnect(paho.Client) {
	log.Printf("mqtt: connected")
	if p.onStatus != nil {
		p.onStatus(true)
	}
	// Publishing with a wait must not block the client's callback goroutine.
	go p.replay()
}

func (p *RealPublisher) handleConnectionLost(_ paho.Client, err error) {
	log.Printf("mqtt: connection lost: %v", err)
	if p.onStatus != nil {
		p.onStatus(false)
	}
}

func (p *RealPublisher) replay() {
	msgs, dropped := p.backlog.drain()
	if len(msgs) == 0 {
		return
	}
	log.Printf("mqtt: replaying %d buffered messages (%d dropped)", len(msgs), dropped)
	for _, msg := range msgs {
		if err := p.send(msg); err != nil {
			log.Printf("mqtt: replay: %v", err)
		}
	}
}

func (p *RealPublisher) send(msg message) error {
	if !p.client.IsConnectionOpen() {
		p.backlog.push(msg)
		return nil
	}

	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	if !token.WaitTimeout(5 * time.Second) {
		p.backlog.push(msg)
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Publish sends a window report to the MQTT broker.
func (p *RealPublisher) Publish(r Reading) error {
	payload, err := FormatPayload(r)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 0 (at-most-once), not retained
	return p.send(message{topic: Topic, payload: payload})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) for lifecycle events
	if err := p.send(message{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained}); err != nil {
		return fmt.Errorf("system: %w", err)
	}
	return nil
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
