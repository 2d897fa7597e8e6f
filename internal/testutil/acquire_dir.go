package testutil

import (
	"os"
	"path/filepath"
)

type (
	TestLog interface {
		Fatal(...interface{})
		Log(...interface{})
	}
)

// AcquireStorageDir returns a fresh directory named name under a temporary root,
// the directory itself is not created so callers can exercise their own MkdirAll.
func AcquireStorageDir(t TestLog, name string) (string, func()) {
	dir, err := os.MkdirTemp("", "authserver-tests")
	if err != nil {
		t.Fatal(err)
	}
	return filepath.Join(dir, name), func() {
		err = os.RemoveAll(dir)
		if err != nil {
			t.Log("unable to cleanup temp dir", dir)
		}
	}
}
