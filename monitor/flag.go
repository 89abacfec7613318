package monitor

import (
	"runtime"
	"sync/atomic"
)

// Flag is a boolean cell written from outside the loop.  Nothing in the
// monitor ever sets it; the loop only reads it and clears it.
type Flag struct {
	v atomic.Bool
}

func (f *Flag) Get() bool { return f.v.Load() }
func (f *Flag) Set()      { f.v.Store(true) }
func (f *Flag) Clear()    { f.v.Store(false) }

// ThreatDetected is the flag a Monitor watches unless given another.  It
// lives at a fixed address so a debugger can force it; with delve:
//
//	(dlv) set 'github.com/merliot/ghost/monitor.ThreatDetected'.v.v = 1
var ThreatDetected Flag

// sensorCheck reads the flag.  It is kept out of line so the read survives
// optimization and there is always a call site to break on.
//
//go:noinline
func sensorCheck(f *Flag) bool {
	detected := f.Get()
	runtime.KeepAlive(f)
	return detected
}
