//go:build !tinygo

package ghost

import (
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTCommands are the packet paths accepted from the broker.  A message on
// topic <prefix>/<id>/<path> is handed to the bus as a packet with that
// path.
var MQTTCommands = []string{"threat", "get/state"}

const mqttTimeout = 10 * time.Second

// MQTTBridge is a socket that carries packets to and from an MQTT broker.
// Packets broadcast on the bus are published to <prefix>/<id>/<path>.
type MQTTBridge struct {
	socket
	client mqtt.Client
	topic  string // "<prefix>/<id>/"
	out    *outbox
}

func newMQTTBridge(bus *Bus, client mqtt.Client, prefix, id string) *MQTTBridge {
	b := &MQTTBridge{
		socket: socket{"mqtt:" + prefix + "/" + id, SocketFlagBcast, bus},
		client: client,
		topic:  prefix + "/" + id + "/",
	}
	b.out = newOutbox(outboxSize, b.publish)
	return b
}

// NewMQTTBridge connects to broker and plugs the bridge into the runner's
// bus.  The client reconnects on its own after the first connect succeeds.
func NewMQTTBridge(runner *Runner, broker, prefix string) (*MQTTBridge, error) {
	id := runner.thinger.Id()
	b := newMQTTBridge(runner.bus, nil, prefix, id)

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(prefix + "-" + id).
		SetAutoReconnect(true).
		SetOnConnectHandler(b.subscribe).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.Warnf("MQTT connection to %s lost: %s", broker, err)
		})
	b.client = mqtt.NewClient(opts)

	tok := b.client.Connect()
	if !tok.WaitTimeout(mqttTimeout) {
		return nil, fmt.Errorf("mqtt connect %s: timeout", broker)
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, err)
	}

	runner.bus.Plugin(b)
	logger.Infof("MQTT bridge up, listening on %s{%s}", b.topic,
		strings.Join(MQTTCommands, ","))
	return b, nil
}

// subscribe runs on every (re)connect
func (b *MQTTBridge) subscribe(c mqtt.Client) {
	for _, path := range MQTTCommands {
		tok := c.Subscribe(b.topic+path, 0, b.receive)
		if tok.WaitTimeout(mqttTimeout) && tok.Error() != nil {
			logger.Errorf("MQTT subscribe %s: %s", b.topic+path, tok.Error())
		}
	}
}

func (b *MQTTBridge) receive(_ mqtt.Client, m mqtt.Message) {
	path := strings.TrimPrefix(m.Topic(), b.topic)
	pkt := &Packet{bus: b.bus, src: b, message: m.Payload()}
	b.bus.receive(pkt.SetPath(path))
}

// Send queues pkt for publishing to <prefix>/<id>/<path>.  Send does not
// wait on the broker; errOutboxFull means the packet was dropped.
func (b *MQTTBridge) Send(pkt *Packet) error {
	if pkt.Path() == "" {
		return fmt.Errorf("mqtt publish: packet has no path")
	}
	return b.out.push(pkt.message)
}

// publish runs on the outbox writer.  Updates are retained so a new
// subscriber sees the last state.  Broker errors are logged and the
// writer carries on with the next message.
func (b *MQTTBridge) publish(msg []byte) error {
	path := NewPacket(msg).Path()
	tok := b.client.Publish(b.topic+path, 0, path == "update", msg)
	if !tok.WaitTimeout(mqttTimeout) {
		logger.Warnf("MQTT publish %s: timeout", b.topic+path)
		return nil
	}
	if err := tok.Error(); err != nil {
		logger.Warnf("MQTT publish %s: %s", b.topic+path, err)
	}
	return nil
}

func (b *MQTTBridge) Close() {
	b.bus.Unplug(b)
	b.out.close()
	b.client.Disconnect(250)
}
