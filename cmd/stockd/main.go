// Package main - stockd CLI
//
// Usage:
//
//	go run ./cmd/stockd serve
//	go run ./cmd/stockd update AAPL MSFT
package main

import (
	"os"

	"github.com/clementklenam/synergyalphaapi/cmd/stockd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
