// wsfeed CLI - admits WebSocket feeds against an allow list and watches them
package main

import "github.com/wsfeed/wsfeed/pkg/cli"

// Build-time variables set via ldflags
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	cli.Version = Version
	cli.Commit = Commit
	cli.BuildDate = BuildDate
	cli.Execute()
}
