// Package testhelper silences logging for test binaries. Import it for its
// side effect:
//
//	import _ "github.com/lacquerai/jsonedit/internal/testhelper"
//
// Set JSONEDIT_TEST_LOG to any value to keep log output while debugging.
package testhelper

import (
	"os"
	"testing"

	"github.com/rs/zerolog"
)

// LogEnv keeps zerolog enabled in tests when set.
const LogEnv = "JSONEDIT_TEST_LOG"

func init() {
	if testing.Testing() && os.Getenv(LogEnv) == "" {
		zerolog.SetGlobalLevel(zerolog.Disabled)
	}
}

// EnableLogging turns logging back on at level for the duration of a test.
func EnableLogging(t testing.TB, level zerolog.Level) {
	t.Helper()
	previous := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(level)
	t.Cleanup(func() { zerolog.SetGlobalLevel(previous) })
}
