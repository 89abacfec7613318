package ghost

import (
	"os"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

var ghostVars = []string{
	"GHOST_ID", "GHOST_MODEL", "GHOST_NAME", "GHOST_PORT", "GHOST_USER",
	"GHOST_PASSWD", "GHOST_TLS_HOST", "GHOST_TLS_CACHE", "GHOST_DIAL", "GHOST_MQTT_BROKER", "GHOST_MQTT_PREFIX",
	"GHOST_REMOTE_WRITE_URL", "GHOST_REMOTE_WRITE_INTERVAL", "GHOST_LOG_LEVEL",
}

// clearEnv unsets every GHOST_* variable for the duration of the test
func clearEnv(t *testing.T) {
	for _, name := range ghostVars {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestGetEnv(t *testing.T) {
	c := qt.New(t)
	clearEnv(t)
	c.Assert(GetEnv("GHOST_ID", "fallback"), qt.Equals, "fallback")
	t.Setenv("GHOST_ID", "")
	c.Assert(GetEnv("GHOST_ID", "fallback"), qt.Equals, "")
	t.Setenv("GHOST_ID", "x")
	c.Assert(GetEnv("GHOST_ID", "fallback"), qt.Equals, "x")
}

func TestLoadConfigDefaults(t *testing.T) {
	c := qt.New(t)
	clearEnv(t)

	cfg, err := LoadConfig()
	c.Assert(err, qt.IsNil)
	c.Assert(cfg, qt.DeepEquals, Config{
		Id:                  "ghost01",
		Model:               "ghost",
		Name:                "ghost",
		TLSCache:            "certs",
		Dial:                []string{},
		MQTTPrefix:          "ghost",
		RemoteWriteInterval: 15 * time.Second,
		LogLevel:            "info",
	})
}

func TestLoadConfigDial(t *testing.T) {
	c := qt.New(t)
	clearEnv(t)
	t.Setenv("GHOST_DIAL", `ws://hub1/ws/ 'ws://hub2/ws/?ping-period=4'`)

	cfg, err := LoadConfig()
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Dial, qt.DeepEquals, []string{
		"ws://hub1/ws/",
		"ws://hub2/ws/?ping-period=4",
	})
}

func TestLoadConfigTLS(t *testing.T) {
	c := qt.New(t)
	clearEnv(t)
	t.Setenv("GHOST_TLS_HOST", "ghost.example.com")
	t.Setenv("GHOST_TLS_CACHE", "/var/lib/ghost/certs")

	cfg, err := LoadConfig()
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.TLSHost, qt.Equals, "ghost.example.com")
	c.Assert(cfg.TLSCache, qt.Equals, "/var/lib/ghost/certs")
	c.Assert(cfg.Port, qt.Equals, "")
}

func TestLoadConfigErrors(t *testing.T) {
	for _, tt := range []struct {
		name, value, err string
	}{
		{"GHOST_ID", "bad-id", `invalid id "bad-id".*`},
		{"GHOST_NAME", "", `invalid id "".*`},
		{"GHOST_DIAL", `ws://hub1/ws/ "unterminated`, `GHOST_DIAL: .*`},
		{"GHOST_REMOTE_WRITE_INTERVAL", "soon", `GHOST_REMOTE_WRITE_INTERVAL: .*`},
		{"GHOST_REMOTE_WRITE_INTERVAL", "-1s", `GHOST_REMOTE_WRITE_INTERVAL must be positive.*`},
	} {
		t.Run(tt.name+"="+tt.value, func(t *testing.T) {
			c := qt.New(t)
			clearEnv(t)
			t.Setenv(tt.name, tt.value)
			_, err := LoadConfig()
			c.Assert(err, qt.ErrorMatches, tt.err)
		})
	}
}
