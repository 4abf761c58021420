// Analytics pipeline CLI entry point.
package main

import (
	"os"

	"github.com/Codedkv/capstone-agents-mvp/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
