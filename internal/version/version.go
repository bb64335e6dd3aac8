// Package version reports the build information of the eudr binaries.
//
// The values are set at build time with -ldflags, e.g.
//
//	go build -ldflags "-X github.com/information-sharing-networks/eudr-dashboard/internal/version.version=v1.2.0" ./cmd/eudr-gateway
//
// When they are not set the module version and vcs details recorded by the go toolchain are used.
package version

import "runtime/debug"

var (
	version   = ""
	buildDate = ""
	gitCommit = ""
)

// Info is the build information of the running binary
type Info struct {
	Version   string `json:"version"`
	BuildDate string `json:"build_date"`
	GitCommit string `json:"git_commit"`
}

// Get returns the build information, falling back to the embedded build info when ldflags were not used
func Get() Info {
	info := Info{
		Version:   version,
		BuildDate: buildDate,
		GitCommit: gitCommit,
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		if info.Version == "" && bi.Main.Version != "" {
			info.Version = bi.Main.Version
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.GitCommit == "" {
					info.GitCommit = s.Value
				}
			case "vcs.time":
				if info.BuildDate == "" {
					info.BuildDate = s.Value
				}
			}
		}
	}

	if info.Version == "" {
		info.Version = "dev"
	}
	if info.BuildDate == "" {
		info.BuildDate = "unknown"
	}
	if info.GitCommit == "" {
		info.GitCommit = "unknown"
	}
	return info
}
