// Package version exposes the devicewatch build stamp.
package version

import "fmt"

// Set at link time:
//
//	-ldflags "-X github.com/carverauto/devicewatch/pkg/version.version=v0.3.0 -X ...buildID=$(git rev-parse --short HEAD)"
//
//nolint:gochecknoglobals // ldflags injection target
var (
	version = "dev"
	buildID = "unknown"
)

// GetVersion returns the release version, "dev" for local builds.
func GetVersion() string {
	return version
}

func GetBuildID() string {
	return buildID
}

// String renders the version line printed by -version.
func String(component string) string {
	return fmt.Sprintf("%s %s (build %s)", component, version, buildID)
}
