package notify

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	mqttQoS            = 1
	mqttRetain         = false
	mqttConnectTimeout = 5 * time.Second
)

// MQTTSink publishes events to an MQTT broker under
// gcs/drone/<id>/<kind>, for fleet-level consumers outside the
// dashboard.
type MQTTSink struct {
	client mqtt.Client
}

// NewMQTTSink connects to the broker and returns a sink.
func NewMQTTSink(brokerURL, clientID string) (*MQTTSink, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(mqttConnectTimeout)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", brokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", brokerURL, err)
	}

	return &MQTTSink{client: client}, nil
}

// Publish implements Sink. Delivery is fire-and-forget; the paho client
// buffers while reconnecting.
func (s *MQTTSink) Publish(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[notify] marshal event for mqtt: %v", err)
		return
	}
	topic := fmt.Sprintf("gcs/drone/%d/%s", ev.DroneID, ev.Kind)
	s.client.Publish(topic, mqttQoS, mqttRetain, data)
}

// Close disconnects from the broker.
func (s *MQTTSink) Close() {
	s.client.Disconnect(250)
}
