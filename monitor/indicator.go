package monitor

// Indicator shows the alert state on the device, usually with an LED
type Indicator interface {
	Alert(on bool)
}

type nopIndicator struct{}

func (nopIndicator) Alert(bool) {}
