//go:build tinygo && !esp32 && !pico && !pico_w

package monitor

import "machine"

type ledIndicator struct {
	pin machine.Pin
}

func NewIndicator() Indicator {
	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	led.Low()
	return &ledIndicator{pin: led}
}

func (l *ledIndicator) Alert(on bool) {
	l.pin.Set(on)
}
