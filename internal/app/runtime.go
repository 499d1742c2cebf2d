package app

import (
	"os"
	"strconv"
)

// TestModeEnv, when true, makes the binaries exit before dialing Redis, Postgres or
// Gotenberg so package tests can import them freely.
const TestModeEnv = "TABLERO_TEST_MODE"

// InTestMode reports whether TestModeEnv is set to a true value.
func InTestMode() bool {
	on, err := strconv.ParseBool(os.Getenv(TestModeEnv))
	return err == nil && on
}
