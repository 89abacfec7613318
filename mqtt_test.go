package ghost

import (
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	qt "github.com/frankban/quicktest"
)

// fakeToken completes immediately unless hold is set, in which case
// WaitTimeout blocks until hold is closed
type fakeToken struct {
	err  error
	hold chan struct{}
}

func (t *fakeToken) Wait() bool { return t.WaitTimeout(0) }
func (t *fakeToken) WaitTimeout(time.Duration) bool {
	if t.hold != nil {
		<-t.hold
	}
	return true
}
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *fakeToken) Error() error { return t.err }

type published struct {
	topic    string
	retained bool
	payload  string
}

// fakeClient records publishes and subscriptions; other Client methods are
// not used by the bridge
type fakeClient struct {
	mqtt.Client
	mu     sync.Mutex
	pubs   []published
	subs   []string
	pubErr error
	hold   chan struct{}
}

func (f *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pubs = append(f.pubs, published{topic, retained, string(payload.([]byte))})
	return &fakeToken{err: f.pubErr, hold: f.hold}
}

func (f *fakeClient) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, topic)
	return &fakeToken{}
}

func (f *fakeClient) setPubErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pubErr = err
}

func (f *fakeClient) published() []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]published(nil), f.pubs...)
}

// waitPubs waits for the bridge's writer to publish n messages
func (f *fakeClient) waitPubs(c *qt.C, n int) []published {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if pubs := f.published(); len(pubs) >= n {
			return pubs
		}
		time.Sleep(time.Millisecond)
	}
	c.Fatalf("timed out waiting for %d publishes, got %d", n, len(f.published()))
	return nil
}

type fakeMessage struct {
	mqtt.Message
	topic   string
	payload []byte
}

func (m *fakeMessage) Topic() string   { return m.topic }
func (m *fakeMessage) Payload() []byte { return m.payload }

func TestMQTTSubscribe(t *testing.T) {
	c := qt.New(t)
	client := &fakeClient{}
	b := newMQTTBridge(NewBus("test bus", nil, nil), client, "ghost", "ghost01")
	defer b.out.close()
	b.subscribe(client)
	c.Assert(client.subs, qt.DeepEquals, []string{
		"ghost/ghost01/threat",
		"ghost/ghost01/get/state",
	})
}

func TestMQTTReceive(t *testing.T) {
	c := qt.New(t)
	client := &fakeClient{}
	bus := NewBus("test bus", nil, nil)
	b := newMQTTBridge(bus, client, "ghost", "ghost01")
	defer b.out.close()

	var got []*Packet
	bus.Handle("threat", func(pkt *Packet) { got = append(got, pkt) })
	bus.Handle("get/state", func(pkt *Packet) {
		pkt.Marshal(&ThingMsg{"state"}).Reply()
	})

	// empty payload: the topic alone carries the path
	b.receive(client, &fakeMessage{topic: "ghost/ghost01/threat"})
	// payload fields survive, the topic wins over any Path in it
	b.receive(client, &fakeMessage{
		topic:   "ghost/ghost01/threat",
		payload: []byte(`{"Path":"bogus","Source":"jtag"}`),
	})
	c.Assert(got, qt.HasLen, 2)
	c.Assert(got[0].String(), qt.Equals, `{"Path":"threat"}`)
	c.Assert(got[1].String(), qt.Equals, `{"Path":"threat","Source":"jtag"}`)
	c.Assert(got[1].Src(), qt.Equals, Socketer(b))

	// replies go back out through the bridge
	b.receive(client, &fakeMessage{topic: "ghost/ghost01/get/state"})
	c.Assert(client.waitPubs(c, 1), qt.DeepEquals, []published{
		{"ghost/ghost01/state", false, `{"Path":"state"}`},
	})
}

func TestMQTTSend(t *testing.T) {
	c := qt.New(t)
	client := &fakeClient{}
	b := newMQTTBridge(NewBus("test bus", nil, nil), client, "ghost", "ghost01")
	defer b.out.close()

	c.Assert(b.Send(NewPacket([]byte(`{"Path":"update","Cycle":1}`))), qt.IsNil)
	c.Assert(client.waitPubs(c, 1), qt.DeepEquals, []published{
		{"ghost/ghost01/update", true, `{"Path":"update","Cycle":1}`},
	})

	c.Assert(b.Send(NewPacket([]byte(`{"Cycle":1}`))), qt.ErrorMatches, ".*no path")
}

func TestMQTTSendBrokerErrorKeepsWriter(t *testing.T) {
	c := qt.New(t)
	client := &fakeClient{}
	b := newMQTTBridge(NewBus("test bus", nil, nil), client, "ghost", "ghost01")
	defer b.out.close()

	client.setPubErr(errors.New("broker gone"))
	c.Assert(b.Send(NewPacket([]byte(`{"Path":"update","Cycle":1}`))), qt.IsNil)
	client.waitPubs(c, 1)

	client.setPubErr(nil)
	c.Assert(b.Send(NewPacket([]byte(`{"Path":"update","Cycle":2}`))), qt.IsNil)
	pubs := client.waitPubs(c, 2)
	c.Assert(pubs[1].payload, qt.Equals, `{"Path":"update","Cycle":2}`)
}

func TestMQTTSendStalledBroker(t *testing.T) {
	c := qt.New(t)
	client := &fakeClient{hold: make(chan struct{})}
	b := newMQTTBridge(NewBus("test bus", nil, nil), client, "ghost", "ghost01")
	defer b.out.close()
	defer close(client.hold)

	// The writer is stuck waiting on the first publish; Send must keep
	// returning promptly, dropping once the queue is full.
	done := make(chan error, 1)
	go func() {
		var dropped error
		for i := 0; i < 10*outboxSize; i++ {
			err := b.Send(NewPacket([]byte(`{"Path":"update"}`)))
			if err != nil {
				dropped = err
			}
		}
		done <- dropped
	}()

	select {
	case err := <-done:
		c.Assert(err, qt.ErrorIs, errOutboxFull)
	case <-time.After(5 * time.Second):
		c.Fatal("Send blocked on a stalled broker")
	}
}

func TestMQTTBroadcast(t *testing.T) {
	c := qt.New(t)
	client := &fakeClient{}
	bus := NewBus("test bus", nil, nil)
	b := newMQTTBridge(bus, client, "ghost", "ghost01")
	bus.Plugin(b)
	defer b.out.close()
	defer bus.Unplug(b)

	bus.Handle("update", func(pkt *Packet) { pkt.Broadcast() })
	injector := NewInjector("test injector", bus)
	injector.Inject(NewPacket([]byte(`{"Path":"update","Cycle":2}`)))

	pubs := client.waitPubs(c, 1)
	c.Assert(pubs, qt.HasLen, 1)
	c.Assert(pubs[0].topic, qt.Equals, "ghost/ghost01/update")
}
