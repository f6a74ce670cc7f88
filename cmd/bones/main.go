package main

import (
	"os"

	"github.com/gameofbones/gameofbones/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
