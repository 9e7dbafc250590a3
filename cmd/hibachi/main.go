package main

import (
	"os"

	"github.com/hibachi-xyz/hibachi-go/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
