//go:build !tinygo

package monitor

// NewIndicator returns the board's alert indicator.  Hosts have none.
func NewIndicator() Indicator {
	return nopIndicator{}
}
