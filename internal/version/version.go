// Package version provides build-time version information.
package version

// Set at build time with -ldflags "-X traffic-signal/internal/version.Version=...".
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String returns a one-line description of the build.
func String() string {
	return Version + " (" + GitCommit + ", built " + BuildTime + ")"
}
