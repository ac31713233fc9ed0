package main

import (
	"os"

	"github.com/oncorag/oncorag/cmd/oncorag"
)

func main() {
	if err := oncorag.Execute(); err != nil {
		os.Exit(1)
	}
}
