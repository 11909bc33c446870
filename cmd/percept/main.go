// percept scores documents against a corpus of perceptual categories.
// Single binary: daemon, CLI client, importer and corpus inspector.
package main

import (
	"os"

	"github.com/corey/percept/cmd/percept/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
