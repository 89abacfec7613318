package ghost

import (
	"encoding/json"
)

// Packet is sent and received on a bus via a socket
type Packet struct {
	bus     *Bus
	src     Socketer
	message []byte // payload
}

// NewPacket returns a packet with message as its payload
func NewPacket(message []byte) *Packet {
	return &Packet{message: message}
}

// Bytes returns the packet message
func (p *Packet) Bytes() []byte {
	return p.message
}

func (p *Packet) String() string {
	return string(p.message)
}

// Path returns the routing path of the packet, or "" if the message has
// none
func (p *Packet) Path() string {
	var msg ThingMsg
	if err := json.Unmarshal(p.message, &msg); err != nil {
		return ""
	}
	return msg.Path
}

// SetPath rewrites the Path field of the message, keeping the other fields
func (p *Packet) SetPath(path string) *Packet {
	fields := map[string]any{}
	if len(p.message) > 0 {
		if err := json.Unmarshal(p.message, &fields); err != nil {
			logger.Errorf("JSON unmarshal error %s", err)
			fields = map[string]any{}
		}
	}
	fields["Path"] = path
	return p.Marshal(fields)
}

// Src returns the socket the packet arrived on
func (p *Packet) Src() Socketer {
	return p.src
}

// Reply sends the packet back to sender
func (p *Packet) Reply() *Packet {
	if p.src == nil {
		logger.Errorf("Can't reply to sender: source is nil")
		return p
	}
	logger.Debugf("Reply: src %s packet %s", p.src, p)
	if err := p.src.Send(p); err != nil {
		logger.Errorf("Reply to %s failed: %s", p.src, err)
	}
	return p
}

// Broadcast the packet to all other broadcast-ready sockets on the bus.  The
// source socket is excluded.
func (p *Packet) Broadcast() *Packet {
	if p.bus == nil {
		logger.Errorf("Can't broadcast packet: bus is nil")
		return p
	}
	logger.Debugf("Broadcast: src %s %s", p.src, p)
	p.bus.broadcast(p)
	return p
}

// Unmarshal the packet message as JSON into v
func (p *Packet) Unmarshal(v any) *Packet {
	if err := json.Unmarshal(p.message, v); err != nil {
		logger.Errorf("JSON unmarshal error %s", err)
	}
	return p
}

// Marshal the packet message as JSON from v
func (p *Packet) Marshal(v any) *Packet {
	var err error
	p.message, err = json.Marshal(v)
	if err != nil {
		logger.Errorf("JSON marshal error %s", err)
	}
	return p
}
