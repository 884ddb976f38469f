// Package buildinfo holds the version metadata stamped into both binaries:
//
//	go build -ldflags "-X github.com/marmos91/offlinecache/internal/buildinfo.Version=v1.2.0"
package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

func init() {
	fillFromVCS()
}

// fillFromVCS takes commit and date from the VCS stamp of a plain "go build"
// when ldflags left them unset.
func fillFromVCS() {
	bi, ok := readBuildInfo()
	if !ok {
		return
	}
	if Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch {
		case s.Key == "vcs.revision" && Commit == "none":
			Commit = s.Value
		case s.Key == "vcs.time" && Date == "unknown":
			Date = s.Value
		}
	}
}

// Summary renders the metadata for a version command.
func Summary(binary string) string {
	return fmt.Sprintf("%s %s\n  commit: %s\n  built:  %s\n  go:     %s %s/%s\n",
		binary, Version, Commit, Date, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
