// Package version reports build version information, set via -ldflags
// at release time and recovered from debug build info otherwise.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// These variables are set at build time using -ldflags.
var (
	// Version is the semantic version of the application.
	Version = "dev"

	// GitCommit is the git commit hash when the binary was built.
	GitCommit = "unknown"
)

// Get returns the application version, preferring the ldflags value,
// then VCS metadata from the build info.
func Get() string {
	if Version != "" && Version != "dev" {
		return Version
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && len(setting.Value) >= 7 {
				return "dev-" + setting.Value[:7]
			}
		}
	}

	return "dev"
}

// Detailed returns a multi-line version string with commit, Go version,
// and platform.
func Detailed() string {
	commit := GitCommit
	if commit == "unknown" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, setting := range info.Settings {
				if setting.Key == "vcs.revision" {
					commit = setting.Value
				}
			}
		}
	}

	return fmt.Sprintf("Version: %s\nCommit: %s\nGo: %s\nPlatform: %s/%s",
		Get(), commit, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
