package main

import (
	"os"
	_ "time/tzdata"

	"github.com/wonny/bigorder/cmd/bigorder/commands"
)

// main is the entry point for the bigorder CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/bigorder [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
