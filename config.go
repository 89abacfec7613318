package ghost

import (
	"fmt"
	"os"
	"time"

	"github.com/google/shlex"
)

// GetEnv returns the value of the environment variable name, or
// defaultValue if it is not set
func GetEnv(name string, defaultValue string) string {
	value, ok := os.LookupEnv(name)
	if !ok {
		return defaultValue
	}
	return value
}

// Config is the process configuration, read from GHOST_* environment
// variables.  Every network surface is off unless configured.
type Config struct {
	Id    string
	Model string
	Name  string

	// Port is the http/ws listen address (":8080").  Empty disables the
	// server.
	Port   string
	User   string
	Passwd string

	// TLSHost, when set, serves https on Port (default :443) with a
	// Let's Encrypt certificate for the host, cached in TLSCache
	TLSHost  string
	TLSCache string

	// Dial lists upstream websocket URLs to announce to
	Dial []string

	MQTTBroker string
	MQTTPrefix string

	RemoteWriteURL      string
	RemoteWriteInterval time.Duration

	LogLevel string
}

// LoadConfig reads the configuration from the environment
func LoadConfig() (Config, error) {
	cfg := Config{
		Id:             GetEnv("GHOST_ID", "ghost01"),
		Model:          GetEnv("GHOST_MODEL", "ghost"),
		Name:           GetEnv("GHOST_NAME", "ghost"),
		Port:           GetEnv("GHOST_PORT", ""),
		User:           GetEnv("GHOST_USER", ""),
		Passwd:         GetEnv("GHOST_PASSWD", ""),
		TLSHost:        GetEnv("GHOST_TLS_HOST", ""),
		TLSCache:       GetEnv("GHOST_TLS_CACHE", "certs"),
		MQTTBroker:     GetEnv("GHOST_MQTT_BROKER", ""),
		MQTTPrefix:     GetEnv("GHOST_MQTT_PREFIX", "ghost"),
		RemoteWriteURL: GetEnv("GHOST_REMOTE_WRITE_URL", ""),
		LogLevel:       GetEnv("GHOST_LOG_LEVEL", "info"),
	}

	for _, id := range []string{cfg.Id, cfg.Model, cfg.Name} {
		if !ValidId(id) {
			return cfg, fmt.Errorf("invalid id %q: want [a-zA-Z0-9_]+", id)
		}
	}

	dial, err := shlex.Split(GetEnv("GHOST_DIAL", ""))
	if err != nil {
		return cfg, fmt.Errorf("GHOST_DIAL: %w", err)
	}
	cfg.Dial = dial

	interval := GetEnv("GHOST_REMOTE_WRITE_INTERVAL", "15s")
	cfg.RemoteWriteInterval, err = time.ParseDuration(interval)
	if err != nil {
		return cfg, fmt.Errorf("GHOST_REMOTE_WRITE_INTERVAL: %w", err)
	}
	if cfg.RemoteWriteInterval <= 0 {
		return cfg, fmt.Errorf("GHOST_REMOTE_WRITE_INTERVAL must be positive, got %s", interval)
	}

	return cfg, nil
}
