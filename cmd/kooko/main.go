package main

import (
	"os"

	"github.com/kooko-labs/kooko/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
