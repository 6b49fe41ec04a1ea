package main

import (
	"os"

	"github.com/lingoquest/lingoquest/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
