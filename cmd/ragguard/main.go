// Command ragguard keeps a RAG index in sync with a document directory,
// answers questions with prompt-injection screening and evaluates answer
// quality against a golden set.
package main

import (
	"os"

	"github.com/custodia-labs/ragguard/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
