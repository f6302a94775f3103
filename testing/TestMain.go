// Package testing switches the process into test mode when imported by a test package.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("USERDIR_TEST_MODE", "1")
	})
}

func init() {
	ensureTestMode()
}

// TestMain sets test mode before running package tests.
func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
