// Package testing prepares the process environment for package tests. Import it for its
// side effects, or for the shared fixture locations.
package testing

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("TABLERO_TEST_MODE", "1")
		if os.Getenv("GOTENBERG_URL") == "" {
			_ = os.Setenv("GOTENBERG_URL", "http://127.0.0.1:0")
		}
		if os.Getenv("SNAPSHOT_DIR") == "" {
			_ = os.Setenv("SNAPSHOT_DIR", SnapshotFixtures())
		}
	})
}

func init() {
	ensureTestMode()
}

// SnapshotFixtures returns the absolute path of the sample snapshot documents.
func SnapshotFixtures() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return filepath.Join("internal", "dataset", "testdata")
	}
	return filepath.Join(filepath.Dir(file), "..", "internal", "dataset", "testdata")
}

// TestMain runs m with the test environment in place.
func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
