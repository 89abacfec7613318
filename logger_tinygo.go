//go:build tinygo

package ghost

import (
	"fmt"
	"time"
)

var boot = time.Now()

// consoleLogger writes ESP-IDF style lines to the serial console:
//
//	I (1042) ghost: System secure. [Cycle: 1]
type consoleLogger struct {
	name  string
	debug bool
}

// NewLogger returns a serial console logger.  Only "debug" changes the
// level; everything else logs info and above.
func NewLogger(name, level string) (Logger, error) {
	return &consoleLogger{name: name, debug: level == "debug"}, nil
}

func (c *consoleLogger) printf(letter, template string, args ...any) {
	ms := time.Since(boot).Milliseconds()
	fmt.Printf("%s (%d) %s: %s\r\n", letter, ms, c.name, fmt.Sprintf(template, args...))
}

func (c *consoleLogger) Debugf(template string, args ...any) {
	if c.debug {
		c.printf("D", template, args...)
	}
}

func (c *consoleLogger) Infof(template string, args ...any)  { c.printf("I", template, args...) }
func (c *consoleLogger) Warnf(template string, args ...any)  { c.printf("W", template, args...) }
func (c *consoleLogger) Errorf(template string, args ...any) { c.printf("E", template, args...) }
