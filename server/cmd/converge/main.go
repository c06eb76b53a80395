// Package main provides the Converge route server.
//
// The converge binary serves the route table generated from a module
// registry and ships the tooling to validate, inspect, import and export
// that registry.
package main

import (
	"os"

	"converge.io/converge/server/cmd/converge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
