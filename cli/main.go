package main

import (
	"os"

	"github.com/vippsas/pgapigen/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
