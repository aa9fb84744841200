package main

import (
	"os"

	"github.com/grovetools/scribe/cli"
	"github.com/grovetools/scribe/cmd"
)

func main() {
	os.Exit(cli.Execute(cmd.NewRootCmd()))
}
