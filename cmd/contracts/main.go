package main

import (
	"os"

	"contractpulse/cmd/contracts/commands"
)

// main is the entry point of the contracts CLI
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
