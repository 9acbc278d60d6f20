// Package version holds the version information stamped into the binary at
// build time.
package version

import "fmt"

// commitFromGit is a constant representing the source version that generated
// this build. It should be set during build via -ldflags.
var commitFromGit string

// versionFromGit is a constant representing the version tag that generated
// this build. It should be set during build via -ldflags.
var versionFromGit = "unknown"

// Info contains the version information of this build.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
}

// Get returns the overall codebase version.
func Get() Info {
	return Info{
		Version:   versionFromGit,
		GitCommit: commitFromGit,
	}
}

// String returns info as a human-friendly version string.
func (info Info) String() string {
	version := info.Version
	if len(info.GitCommit) > 0 {
		version = fmt.Sprintf("%s-%s", version, info.GitCommit)
	}
	return version
}
