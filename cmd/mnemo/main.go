package main

import (
	"os"

	"github.com/easeaico/mnemosyne/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
