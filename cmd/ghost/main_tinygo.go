//go:build tinygo

package main

import (
	"github.com/merliot/ghost"
	"github.com/merliot/ghost/monitor"
)

func main() {
	log, _ := ghost.NewLogger("ghost", "info")
	ghost.SetLogger(log)

	mon := monitor.New("ghost01", "ghost", "ghost").(*monitor.Monitor)
	mon.Log = log
	mon.Indicator = monitor.NewIndicator()

	ghost.NewRunner(mon).Run()
}
