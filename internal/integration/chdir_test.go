package integration

import (
	"os"
	"testing"
)

// chdir changes the working directory for the duration of the test. It stands
// in for testing.T.Chdir, which needs Go 1.24 while this module still builds
// with 1.21.
func chdir(t *testing.T, dir string) {
	t.Helper()

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			// Later tests would run in the wrong directory.
			panic("chdir cleanup: " + err.Error())
		}
	})
}
