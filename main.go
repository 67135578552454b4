package main

import (
	"os"

	"github.com/jwhan-dev/robofleet/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
