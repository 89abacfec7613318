//go:build tinygo && esp32

package monitor

import "machine"

// Built-in LED pin on most ESP32 dev boards
const ledPin = machine.GPIO2

type ledIndicator struct {
	pin machine.Pin
}

func NewIndicator() Indicator {
	ledPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	ledPin.Low()
	return &ledIndicator{pin: ledPin}
}

func (l *ledIndicator) Alert(on bool) {
	l.pin.Set(on)
}
