// Values below are injected at link time, e.g.
//   go build -ldflags "-X ietool.dev/backend-next/internal/pkg/bininfo.Version=v1.2.0"
// Keep the variable names in sync with the build scripts.

package bininfo

var (
	// Version is the SemVer version of the binary, with the git commit appended
	// after a plus sign when available.
	Version = "v0.0.0"

	// BuildTime is the time at which the binary was built.
	BuildTime = "1970-01-01T00:00:00Z"
)
