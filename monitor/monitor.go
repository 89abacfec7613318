// Package monitor is the threat monitor thing.  Its Run loop polls a flag
// once per cycle and logs either a secure line or a threat alert.  The flag
// has no writer inside the program: it is forced from outside, by JTAG on
// a board, or by a debugger or a "threat" packet on a host.
package monitor

import (
	"time"

	"github.com/merliot/ghost"
)

const (
	cycleDelay = 1000 * time.Millisecond
	alertDelay = 2000 * time.Millisecond
)

const (
	StatusSecure = "secure"
	StatusAlert  = "alert"
)

type Monitor struct {
	ghost.Thing
	ghost.ThingMsg
	Cycle   uint32
	Threat  bool
	Status  string
	Threats uint32

	flag     *Flag
	injector *ghost.Injector

	Log       ghost.Logger        `json:"-"`
	Sleep     func(time.Duration) `json:"-"`
	Indicator Indicator           `json:"-"`
}

func New(id, model, name string) ghost.Thinger {
	return &Monitor{
		Thing:     ghost.NewThing(id, model, name),
		Status:    StatusSecure,
		flag:      &ThreatDetected,
		Log:       ghost.NopLogger(),
		Sleep:     time.Sleep,
		Indicator: nopIndicator{},
	}
}

// UseFlag makes the monitor watch f instead of ThreatDetected
func (m *Monitor) UseFlag(f *Flag) {
	m.flag = f
}

func (m *Monitor) getState(pkt *ghost.Packet) {
	m.Lock()
	defer m.Unlock()
	m.Path = "state"
	pkt.Marshal(m).Reply()
}

func (m *Monitor) update(pkt *ghost.Packet) {
	pkt.Broadcast()
}

// threat is the out-of-band writer: the host stand-in for a probe
// poking the flag
func (m *Monitor) threat(pkt *ghost.Packet) {
	m.Log.Debugf("Threat flag forced by %s", pkt.Src())
	m.flag.Set()
}

func (m *Monitor) Subscribers() ghost.Subscribers {
	return ghost.Subscribers{
		"get/state": m.getState,
		"attached":  m.getState,
		"update":    m.update,
		"threat":    m.threat,
	}
}

// Metrics returns the monitor's counters for export
func (m *Monitor) Metrics() map[string]float64 {
	m.Lock()
	defer m.Unlock()
	return map[string]float64{
		"ghost_cycles_total":  float64(m.Cycle),
		"ghost_threats_total": float64(m.Threats),
	}
}

func (m *Monitor) publish() {
	if m.injector == nil {
		return
	}
	var pkt ghost.Packet
	m.Lock()
	m.Path = "update"
	pkt.Marshal(m)
	m.Unlock()
	m.injector.Inject(&pkt)
}

// Step runs one cycle of the loop
func (m *Monitor) Step() {
	m.Lock()
	m.Cycle++
	cycle := m.Cycle
	threat := sensorCheck(m.flag)
	m.Threat = threat
	if threat {
		m.Status = StatusAlert
		m.Threats++
	} else {
		m.Status = StatusSecure
	}
	m.Unlock()

	if threat {
		m.Indicator.Alert(true)
		m.Log.Errorf("!! THREAT DETECTED !! [Cycle: %d]", cycle)
		m.Log.Warnf("Engaging backup protocols...")
		m.flag.Clear()
		m.publish()
		m.Sleep(alertDelay)
		m.Indicator.Alert(false)
	} else {
		m.Log.Infof("System secure. [Cycle: %d]", cycle)
		m.publish()
	}

	m.Sleep(cycleDelay)
}

// Run never returns
func (m *Monitor) Run(i *ghost.Injector) {
	m.injector = i
	m.Log.Infof("System altered!")
	for {
		m.Step()
	}
}
