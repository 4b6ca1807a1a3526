package autopilot

import "testing"

func TestGetVersion(t *testing.T) {
	t.Parallel()

	if Version == "" {
		t.Fatal("Version should not be empty")
	}
	if v := GetVersion(); v != Version {
		t.Errorf("GetVersion() = %s, want %s", v, Version)
	}
}
