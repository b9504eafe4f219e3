// Package main is the single-binary entrypoint for SideQuest.
package main

import "github.com/sidequest-app/sidequest/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
