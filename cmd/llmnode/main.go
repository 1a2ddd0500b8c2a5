package main

import (
	"os"

	"llmnode/cmd/llmnode/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
