// Package version reports build information and orders plugin versions.
package version

import (
	"fmt"
	"runtime"
)

// Build information, set at build time via ldflags:
//
//	-X github.com/teranos/qlint/version.Version=1.4.0
var (
	CommitHash = "dev"
	BuildTime  = "unknown"
	Version    = "dev"
)

// DevHostVersion is the host version reported to plugin constraints when the
// binary was built without a tagged version.
const DevHostVersion = "0.0.0-dev"

// Info describes the running binary.
type Info struct {
	CommitHash string `json:"commit_hash"`
	BuildTime  string `json:"build_time"`
	Version    string `json:"version"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

// Get returns the build information of the running binary.
func Get() Info {
	return Info{
		CommitHash: CommitHash,
		BuildTime:  BuildTime,
		Version:    Version,
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func (i Info) tagged() bool {
	return i.Version != "" && i.Version != "dev"
}

// HostVersion returns the version plugin constraints are checked against.
func (i Info) HostVersion() string {
	if !i.tagged() {
		return DevHostVersion
	}
	return i.Version
}

// UserAgent identifies qlint in requests to the server.
func (i Info) UserAgent() string {
	return fmt.Sprintf("qlint/%s (%s)", i.HostVersion(), i.Platform)
}

func (i Info) String() string {
	v := "dev"
	if i.tagged() {
		v = i.Version
	}
	return fmt.Sprintf("qlint %s (commit %s, built %s)", v, i.CommitHash, i.BuildTime)
}

// Short returns the abbreviated commit hash.
func (i Info) Short() string {
	if len(i.CommitHash) < 7 {
		return i.CommitHash
	}
	return i.CommitHash[:7]
}
