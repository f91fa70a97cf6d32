package app

import (
	"os"
	"strconv"
	"sync"
)

const testModeEnv = "LEDGER_TEST_MODE"

var testMode = sync.OnceValue(func() bool {
	on, _ := strconv.ParseBool(os.Getenv(testModeEnv))
	return on
})

// InTestMode reports whether commands should skip runtime side effects such as
// opening connections. The flag is read once per process.
func InTestMode() bool {
	return testMode()
}
