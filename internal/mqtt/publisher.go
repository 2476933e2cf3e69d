// Package mqtt publishes generated telemetry samples to an MQTT broker.
// Optional integration; the simulation runs fine without it.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/aquamon/aquamon-go/internal/alerting"
	"github.com/aquamon/aquamon-go/internal/conf"
	"github.com/aquamon/aquamon-go/internal/logger"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// Publisher forwards telemetry samples to a broker, one topic per device:
// <topic>/<deviceID>.
type Publisher struct {
	client    pahomqtt.Client
	topicBase string
	log       logger.Logger
}

// NewPublisher creates and connects a Publisher.
func NewPublisher(settings conf.MQTTSettings, log logger.Logger) (*Publisher, error) {
	opts := pahomqtt.NewClientOptions().
		AddBroker(settings.Broker).
		SetClientID(settings.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout)
	if settings.Username != "" {
		opts.SetUsername(settings.Username)
		opts.SetPassword(settings.Password)
	}
	opts.SetOnConnectHandler(func(pahomqtt.Client) {
		log.Info("mqtt connected", logger.String("broker", settings.Broker))
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		log.Warn("mqtt connection lost", logger.Error(err))
	})

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("timed out connecting to mqtt broker %s", settings.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to mqtt broker %s: %w", settings.Broker, err)
	}

	return &Publisher{client: client, topicBase: settings.Topic, log: log}, nil
}

// Publish sends one sample as JSON. Respects the context deadline.
func (p *Publisher) Publish(ctx context.Context, sample alerting.TelemetrySample) error {
	payload, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("failed to marshal sample: %w", err)
	}

	topic := fmt.Sprintf("%s/%s", p.topicBase, sample.DeviceID)
	token := p.client.Publish(topic, 0, false, payload)

	timeout := publishTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("timed out publishing to %s", topic)
	}
	return token.Error()
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
