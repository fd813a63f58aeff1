// Package buildinfo carries the version stamped into cutline binaries.
//
// Release builds set the variables with the linker:
//
//	go build -ldflags "-X github.com/matzehuels/cutline/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/cutline/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/cutline/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/cutline
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info is the build stamp as reported by `cutline --version`, the serve
// log and the API health check.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"built"`
}

// Get returns the stamp of the running binary.
func Get() Info {
	return Info{Version: Version, Commit: Commit, Date: Date}
}

// Short returns the version with the commit abbreviated to seven
// characters, or just the version for unstamped builds.
func (i Info) Short() string {
	if i.Commit == "" || i.Commit == "none" {
		return i.Version
	}
	c := i.Commit
	if len(c) > 7 {
		c = c[:7]
	}
	return fmt.Sprintf("%s (%s)", i.Version, c)
}

// Template returns the version template for the root command.
func Template() string {
	i := Get()
	return fmt.Sprintf("{{.Name}} %s\nbuilt: %s\n", i.Short(), i.Date)
}
