// Package main is the entry point for the scadtest CLI.
package main

import "scadtest.dev/pkg/scadtest/cmd"

func main() {
	cmd.Execute()
}
