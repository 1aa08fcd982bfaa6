package main

import (
	"os"

	"github.com/pgtenant-labs/pgtenant-go/cmd/pgtenant/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
