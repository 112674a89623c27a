// Package version holds build-time version information.
package version

// Version contains the application version information.
// Set it at build time:
// go build -ldflags "-X git.home.luguber.info/inful/sitebuilder/internal/version.Version=v1.0.0".
var Version = "dev"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String returns the version with commit and build time when known.
func String() string {
	s := Version
	if GitCommit != "unknown" && GitCommit != "" {
		s += " (" + GitCommit
		if BuildTime != "unknown" && BuildTime != "" {
			s += ", " + BuildTime
		}
		s += ")"
	}
	return s
}
