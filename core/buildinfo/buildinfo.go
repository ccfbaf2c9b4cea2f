// Package buildinfo carries version stamps injected at link time:
//
//	go build -ldflags "-X github.com/m3rciful/todobot/core/buildinfo.Version=v0.3.0 \
//	  -X github.com/m3rciful/todobot/core/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	  -X github.com/m3rciful/todobot/core/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package buildinfo

var (
	// Version is the release tag.
	Version = "dev"
	// Commit is the source revision.
	Commit = "local"
	// Date is the build time in RFC3339.
	Date = ""
)

// String renders the stamps on one line for logs and /version style output.
func String() string {
	s := Version + " (" + Commit
	if Date != "" {
		s += ", " + Date
	}
	return s + ")"
}
