package ghost

// Injector is the socket a thing's Run loop uses to put packets on the bus.
// Injected packets are handled synchronously, on the caller's goroutine.
type Injector struct {
	socket
}

func NewInjector(name string, bus *Bus) *Injector {
	i := &Injector{socket{name, 0, bus}}
	bus.Plugin(i)
	return i
}

func (i *Injector) Inject(pkt *Packet) {
	pkt.bus, pkt.src = i.bus, i
	i.bus.receive(pkt)
}
