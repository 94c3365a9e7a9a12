// Command speedlaunch serves the AI speed-launch guide locally and inspects
// its saved progress.
package main

import (
	"fmt"
	"os"

	"github.com/livetemplate/speedlaunch/cmd/speedlaunch/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
