// ABOUTME: Entry point for the cleanops CLI
// ABOUTME: Administrator console and dashboard for the CleanOps marketplace

package main

import (
	"fmt"
	"os"

	"github.com/markalston/cleanops-admin/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
