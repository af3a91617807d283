package main

import (
	"os"

	"github.com/valuecompass/compass/cmd/compass/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
