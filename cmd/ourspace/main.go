package main

import (
	"os"

	"ourspace/cmd/ourspace/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
