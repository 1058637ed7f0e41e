// Package version exposes build information set at link time:
//
//	go build -ldflags "-X github.com/NERVsystems/greenroute/pkg/version.BuildVersion=v1.2.0"
package version

import (
	"fmt"
	"runtime"
)

// Set by -ldflags at build time.
var (
	BuildVersion = "dev"
	BuildCommit  = "unknown"
	BuildDate    = "unknown"
)

// Info returns build details keyed by name.
func Info() map[string]string {
	return map[string]string{
		"version":    BuildVersion,
		"commit":     BuildCommit,
		"build_date": BuildDate,
		"go_version": runtime.Version(),
	}
}

// String returns a one-line summary.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s, %s)", BuildVersion, BuildCommit, BuildDate, runtime.Version())
}
