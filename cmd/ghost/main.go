//go:build !tinygo

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/merliot/ghost"
	"github.com/merliot/ghost/monitor"
)

func main() {
	cfg, err := ghost.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %s\n", err)
		os.Exit(1)
	}

	log, err := ghost.NewLogger("ghost", cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %s\n", err)
		os.Exit(1)
	}
	ghost.SetLogger(log)

	mon := monitor.New(cfg.Id, cfg.Model, cfg.Name).(*monitor.Monitor)
	mon.Log = log
	mon.Indicator = monitor.NewIndicator()

	runner := ghost.NewRunner(mon)

	if cfg.Port != "" || cfg.TLSHost != "" {
		server := ghost.NewServer(runner, cfg.Port)
		server.BasicAuth(cfg.User, cfg.Passwd)
		go func() {
			if cfg.TLSHost != "" {
				log.Fatal(server.ListenAndServeAutoTLS(cfg.TLSHost, cfg.TLSCache))
			}
			log.Fatal(server.ListenAndServe())
		}()
	}

	for _, url := range cfg.Dial {
		if err := runner.Dial(cfg.User, cfg.Passwd, url); err != nil {
			log.Fatalf("dial %s: %s", url, err)
		}
	}

	if cfg.MQTTBroker != "" {
		if _, err := ghost.NewMQTTBridge(runner, cfg.MQTTBroker, cfg.MQTTPrefix); err != nil {
			log.Fatal(err)
		}
	}

	if cfg.RemoteWriteURL != "" {
		labels := map[string]string{"id": cfg.Id, "model": cfg.Model}
		rw := ghost.NewRemoteWriter(cfg.RemoteWriteURL, cfg.RemoteWriteInterval,
			labels, mon.Metrics)
		go rw.Run(context.Background())
	}

	runner.Run()
}
