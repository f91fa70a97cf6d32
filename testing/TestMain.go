// Package testing switches the ledger into test mode for any package that
// imports it for side effects.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var (
	once sync.Once

	// forced always wins over the caller's environment.
	forced = map[string]string{
		"LEDGER_TEST_MODE": "1",
	}
	// defaults apply only when the variable is unset.
	defaults = map[string]string{
		"REDIS_ENABLED":    "false",
		"MIGRATE_ON_START": "false",
	}
)

func ensureTestMode() {
	once.Do(func() {
		for k, v := range forced {
			_ = os.Setenv(k, v)
		}
		for k, v := range defaults {
			if _, ok := os.LookupEnv(k); !ok {
				_ = os.Setenv(k, v)
			}
		}
	})
}

func init() {
	ensureTestMode()
}

// TestMain lets a package delegate its TestMain here.
func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
