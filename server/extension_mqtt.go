package server

import (
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"meshchat/frame"
)

// MQTTBridgeConfig configures the built-in Extension handler that
// republishes extension payloads to an MQTT broker (SPEC_FULL.md §B, giving
// the Extension command's "opaque extension point" (§4.3) a runnable
// instance).
type MQTTBridgeConfig struct {
	BrokerURL   string
	Topic       string
	ExtensionID uint64
}

// mqttBridge holds the connected client the handler closure publishes
// through.
type mqttBridge struct {
	client mqtt.Client
	topic  string
}

// NewMQTTExtension connects to cfg.BrokerURL and returns an
// ExtensionHandler that republishes every payload's bulk contents to
// cfg.Topic. Register it with Server.RegisterExtension(cfg.ExtensionID, ...).
func NewMQTTExtension(cfg MQTTBridgeConfig) (ExtensionHandler, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(fmt.Sprintf("meshchat-extension-%d", cfg.ExtensionID)).
		SetConnectTimeout(5 * time.Second).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if tok := client.Connect(); tok.Wait() && tok.Error() != nil {
		return nil, fmt.Errorf("mqtt extension: connect to %s: %w", cfg.BrokerURL, tok.Error())
	}

	bridge := &mqttBridge{client: client, topic: cfg.Topic}
	return bridge.handle, nil
}

func (b *mqttBridge) handle(source string, payload *frame.Frame) {
	var body []byte
	switch {
	case payload == nil:
	case payload.Kind == frame.KindBulk:
		body = payload.Bulk
	case payload.Kind == frame.KindText:
		body = []byte(payload.Text)
	default:
		encoded, err := frame.Marshal(payload)
		if err != nil {
			log.Printf("mqtt extension: marshal payload from %s: %v", source, err)
			return
		}
		body = encoded
	}
	tok := b.client.Publish(b.topic, 0, false, body)
	if tok.Wait() && tok.Error() != nil {
		log.Printf("mqtt extension: publish from %s: %v", source, tok.Error())
	}
}
