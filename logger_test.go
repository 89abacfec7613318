package ghost

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	c := qt.New(t)

	log, err := NewLogger("ghost", "warn")
	c.Assert(err, qt.IsNil)
	c.Assert(log.Desugar().Core().Enabled(zapcore.DebugLevel), qt.IsFalse)
	c.Assert(log.Desugar().Core().Enabled(zapcore.WarnLevel), qt.IsTrue)

	_, err = NewLogger("ghost", "chatty")
	c.Assert(err, qt.ErrorMatches, `log level "chatty": .*`)
}

func TestSetLoggerNil(t *testing.T) {
	c := qt.New(t)
	defer SetLogger(nil)
	SetLogger(nil)
	c.Assert(logger, qt.Equals, Logger(nopLogger{}))
}
