//go:build tinygo && (pico || pico_w)

package monitor

import (
	"github.com/soypat/cyw43439"
)

// The Pico W LED hangs off the cyw43439 radio, GPIO 0
type picoWIndicator struct {
	dev *cyw43439.Device
}

func NewIndicator() Indicator {
	spi, cs, wlreg, irq := cyw43439.PicoWSpi(0)
	dev := cyw43439.NewDevice(spi, cs, wlreg, irq, irq)
	if err := dev.Init(cyw43439.DefaultConfig(false)); err != nil {
		println("cyw43439 init failed, no alert LED:", err.Error())
		return nopIndicator{}
	}
	return &picoWIndicator{dev: dev}
}

func (p *picoWIndicator) Alert(on bool) {
	if err := p.dev.GPIOSet(0, on); err != nil {
		println("LED err", err.Error())
	}
}
