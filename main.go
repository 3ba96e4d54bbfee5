package main

import (
	"os"

	"participations-app/internal/app/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
