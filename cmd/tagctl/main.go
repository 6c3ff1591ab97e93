// Command tagctl is the operator CLI for the ATag service. It talks to the
// database directly, using the same configuration as the API server.
package main

import (
	"fmt"
	"os"

	"github.com/pkordes/atag/cmd/tagctl/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
