package main

import (
	"os"

	"github.com/masonbuild/mason/cmd"
	"github.com/masonbuild/mason/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		// Configuration errors exit 2 so scripts can tell a bad
		// project.yaml apart from a failing compiler.
		if errors.IsConfigError(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
