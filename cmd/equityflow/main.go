package main

import (
	"os"

	"github.com/equityflow-dev/equityflow/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
