package main

import (
	"os"

	"github.com/aniwise/aniwise/cmd/aniwise"
)

func main() {
	if err := aniwise.Execute(); err != nil {
		os.Exit(1)
	}
}
