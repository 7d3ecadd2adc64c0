package main

import (
	"os"

	"github.com/wonny/chartsignal/cmd/signal/commands"
)

// main is the entry point for the chartsignal CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/signal [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
