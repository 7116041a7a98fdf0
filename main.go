package main

import (
	"os"

	"github.com/citydispatch/ridesim/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
