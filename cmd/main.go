package main

import (
	"os"

	"github.com/qmin9339-glitch/choseong/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
