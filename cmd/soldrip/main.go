package main

import (
	"fmt"
	"os"

	"soldrip-go/cmd/soldrip/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
