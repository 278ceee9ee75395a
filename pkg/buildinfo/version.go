// Package buildinfo holds version information stamped in at build time:
//
//	go build -ldflags "-X github.com/matzehuels/pipebuilder/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/pipebuilder/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/pipebuilder/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" \
//	    ./cmd/pipebuilder
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String returns the formatted build information.
func String() string {
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s", Version, Commit, Date)
}

// Template returns the version template string for cobra.
func Template() string {
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}

// UserAgent identifies the CLI to the validation service.
func UserAgent() string {
	return "pipebuilder/" + Version
}
