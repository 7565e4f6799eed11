package sensors

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"depthflow/internal/utils"
)

type MQTTOptions struct {
	Broker   string
	Topic    string
	ClientID string
}

// MQTTSource subscribes to a pose topic and forwards every pose.
type MQTTSource struct {
	opts MQTTOptions
}

func NewMQTTSource(opts MQTTOptions) *MQTTSource {
	return &MQTTSource{opts: opts}
}

func (s *MQTTSource) Run(ctx context.Context, sink Sink) error {
	opts := mqtt.NewClientOptions().
		AddBroker(s.opts.Broker).
		SetClientID(s.opts.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("connect mqtt %s: %w", s.opts.Broker, token.Error())
	}
	defer client.Disconnect(250)
	utils.Info("Sensors: connected to MQTT broker at %s", s.opts.Broker)

	token := client.Subscribe(s.opts.Topic, 0, s.handler(sink))
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", s.opts.Topic, token.Error())
	}
	utils.Info("Sensors: subscribed to %s", s.opts.Topic)

	<-ctx.Done()
	client.Unsubscribe(s.opts.Topic).WaitTimeout(time.Second)
	return nil
}

func (s *MQTTSource) handler(sink Sink) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		sample, err := DecodePose(msg.Payload())
		if err != nil {
			utils.Warn("Sensors: %s: %v", msg.Topic(), err)
			return
		}
		sink.PushOrientation(sample)
	}
}
