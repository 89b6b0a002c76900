// Package version holds build metadata injected at link time:
// go build -ldflags "-X git.home.luguber.info/inful/venuestatus/internal/version.Version=v1.0.0".
package version

import "fmt"

var Version = "unknown"

var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version line printed by --version.
func String() string {
	return fmt.Sprintf("venuestatus %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
