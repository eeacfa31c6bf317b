package main

import (
	"os"

	"github.com/furkanakkurt/taskmanager/cmd"
	"github.com/furkanakkurt/taskmanager/internal/cli"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(cli.ExitCodeFor(err))
	}
}
