package main

import (
	"tondev/internal/cli"
)

// These variables are populated by the build via -ldflags, e.g.
// -X main.version=v0.3.0 -X main.commit=$(git rev-parse --short HEAD).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cli.SetBuildInfo(version, commit, date)
	cli.Execute()
}
