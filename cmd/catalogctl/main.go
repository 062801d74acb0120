// Command catalogctl inspects, validates and edits information-item record
// sets, and serves the editing-session HTTP API.
package main

import (
	"fmt"
	"os"
)

func main() {
	cli := NewCLI()
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
