// Package version holds build metadata injected via ldflags.
package version

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// UserAgent identifies outbound requests made by casebud binaries and the SDK.
func UserAgent() string {
	return "casebud/" + Version + " (" + Commit + ")"
}
