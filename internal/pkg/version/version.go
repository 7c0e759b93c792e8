// Package version exposes the git metadata embedded at build time by go generate.
package version

import (
	_ "embed"
	"strings"
)

//go:generate sh -c "printf %s $(git rev-parse HEAD) > commit.txt"
//go:generate sh -c "printf %s $(git rev-parse --abbrev-ref HEAD) > branch.txt"
//go:generate sh -c "printf %s $(git describe --tags --abbrev=0 2>/dev/null || echo none) > tag.txt"
//go:generate sh -c "git diff-index --quiet HEAD -- && echo clean > dirty.txt || echo dirty > dirty.txt"

//go:embed commit.txt
var commit string

//go:embed branch.txt
var branch string

//go:embed tag.txt
var tag string

//go:embed dirty.txt
var dirty string

// GitInfo describes the source tree the binary was built from.
type GitInfo struct {
	Commit string `json:"commit"`
	Branch string `json:"branch"`
	Tag    string `json:"tag"`
	Dirty  bool   `json:"dirty"`
}

var info = GitInfo{
	Commit: strings.TrimSpace(commit),
	Branch: strings.TrimSpace(branch),
	Tag:    strings.TrimSpace(tag),
	Dirty:  strings.TrimSpace(dirty) == "dirty",
}

// GetGitInfo returns a copy of the git metadata.
func GetGitInfo() GitInfo {
	return info
}
