// chatdb – chat with a relational database in natural language.
//
// Entry point: initializes the Cobra root command, which launches the
// Bubble Tea TUI.
package main

import (
	"os"

	"github.com/DachengChen/chatdb/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
