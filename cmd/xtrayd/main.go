package main

import (
	"os"

	"github.com/shelepuginivan/xtray/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
