package main

import (
	"os"

	"github.com/opsline-io/svcctl/internal/cli"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := cli.New(version).Execute(); err != nil {
		os.Exit(1)
	}
}
