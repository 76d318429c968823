package transport

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/stl-run/stl/program"
	"github.com/stl-run/stl/registry"
	"github.com/stl-run/stl/value"
)

// MQTTLink publishes and subscribes on one topic, encoding message
// arguments per their declared MessageDecl encoding and decoding received
// payloads as JSON.
type MQTTLink struct {
	client  mqtt.Client
	codecs  value.Codecs
	topic   string
	timeout time.Duration
	inbox   chan []byte
}

// Connect dials brokerURL and subscribes to topic, buffering received
// payloads for WaitEvent to consume in order.
func Connect(brokerURL, topic string, codecs value.Codecs) (*MQTTLink, error) {
	l := &MQTTLink{codecs: codecs, topic: topic, timeout: 10 * time.Second, inbox: make(chan []byte, 64)}
	opts := mqtt.NewClientOptions().AddBroker(brokerURL)
	opts.SetDefaultPublishHandler(func(_ mqtt.Client, msg mqtt.Message) {
		l.inbox <- msg.Payload()
	})
	client := mqtt.NewClient(opts)
	if tok := client.Connect(); tok.Wait() && tok.Error() != nil {
		return nil, fmt.Errorf("transport: mqtt connect: %w", tok.Error())
	}
	if tok := client.Subscribe(topic, 1, nil); tok.Wait() && tok.Error() != nil {
		return nil, fmt.Errorf("transport: mqtt subscribe %s: %w", topic, tok.Error())
	}
	l.client = client
	return l, nil
}

// SendEvent publishes args[0], a message argument, to the link's topic.
// source and target are unused here since one MQTTLink binds one fixed
// topic, but they are threaded through so a per-role-topic link could
// route on target.QualifiedName() instead.
func (l *MQTTLink) SendEvent(args []value.Value, refs []*value.Value, source, target registry.RoleContext) (bool, error) {
	if len(args) != 1 || args[0].Kind != value.KMessage {
		return false, fmt.Errorf("transport: mqtt event expects a single message argument")
	}
	enc, err := value.Encode(l.codecs, args[0].Message)
	if err != nil {
		return false, err
	}
	tok := l.client.Publish(l.topic, 1, false, enc)
	tok.Wait()
	if err := tok.Error(); err != nil {
		return false, fmt.Errorf("transport: mqtt publish: %w", err)
	}
	return true, nil
}

// WaitEvent blocks for the next buffered payload, decodes it as JSON
// against decl whatever encoding decl declares,
// and writes it into refs[0] if present.
func (l *MQTTLink) WaitEvent(decl *program.MessageDecl) registry.EventFunc {
	return func(args []value.Value, refs []*value.Value, source, target registry.RoleContext) (bool, error) {
		select {
		case raw := <-l.inbox:
			m, err := value.DecodeJSON(decl, raw)
			if err != nil {
				return false, err
			}
			if len(refs) > 0 {
				*refs[0] = value.MessageVal(m)
			}
			return true, nil
		case <-time.After(l.timeout):
			return false, fmt.Errorf("transport: mqtt wait on %s timed out", l.topic)
		}
	}
}

// Close disconnects the underlying MQTT client.
func (l *MQTTLink) Close() {
	l.client.Disconnect(250)
}
