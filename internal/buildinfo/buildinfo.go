// Package buildinfo reports which build of eckshelf is running.
package buildinfo

import (
	"runtime/debug"
	"time"
)

// Set via -ldflags "-X github.com/xelth-com/eckshelf/internal/buildinfo.Version=..."
var (
	Version    = "dev"
	BuildTime  string
	CommitHash string
)

// StartTime is recorded when the process starts
var StartTime = time.Now().UTC().Format(time.RFC3339)

// Info is the build description served on /health
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	StartedAt string `json:"started_at"`
	GoVersion string `json:"go_version"`
}

// Current returns the build description. Without ldflags the commit is taken
// from the VCS stamp the go tool embeds.
func Current() Info {
	info := Info{
		Version:   Version,
		Commit:    CommitHash,
		BuildTime: BuildTime,
		StartedAt: StartTime,
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = shortHash(s.Value)
			}
		case "vcs.time":
			if info.BuildTime == "" {
				info.BuildTime = s.Value
			}
		}
	}
	return info
}

func shortHash(h string) string {
	if len(h) > 7 {
		return h[:7]
	}
	return h
}
