package main

import (
	"os"

	"kameti/cmd/kametictl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
