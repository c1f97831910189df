package main

import (
	"os"

	"bloomed/internal/cli"
)

func main() { os.Exit(cli.Main()) }
