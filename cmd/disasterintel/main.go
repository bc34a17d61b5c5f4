package main

import (
	"fmt"
	"os"

	"github.com/mitchk23/disaster-intel-tool/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
