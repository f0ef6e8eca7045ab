package main

import (
	"os"

	"github.com/abramin/abilens/cmd/abilens/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
