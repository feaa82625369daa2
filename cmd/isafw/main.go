package main

import (
	_ "isafw/internal/analyzers/configfile"
	_ "isafw/internal/analyzers/fsperm"
	_ "isafw/internal/analyzers/kernel"
	_ "isafw/internal/analyzers/license"
	"isafw/internal/cli"
)

// These variables are populated by the build via -ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cli.SetBuildInfo(version, commit, date)
	cli.Execute()
}
