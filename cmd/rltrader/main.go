package main

import (
	"os"

	"github.com/samuelfneumann/rltrader/cmd/rltrader/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
