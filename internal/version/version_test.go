package version

import "testing"

func TestVersion_DefaultsToUnknown(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}

	if Version != "unknown" {
		// Set via ldflags in release builds only.
		t.Logf("Version is: %s", Version)
	}
}

func TestBuildInfo_Initialized(t *testing.T) {
	if BuildTime == "" {
		t.Error("BuildTime should be initialized")
	}

	if GitCommit == "" {
		t.Error("GitCommit should be initialized")
	}
}
