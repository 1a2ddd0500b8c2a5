package main

import (
	"os"

	"llmnode/cmd/llmclient/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
