package main

import (
	"os"

	"github.com/rush4n/SSSMS-Academic-Portal/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
