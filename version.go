// Package autopilot provides the version information for autopilot-go.
package autopilot

// Version is the current version of autopilot-go.
const Version = "0.1.0"

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}
