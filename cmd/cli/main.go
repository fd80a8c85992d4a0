// Package main is the entry point for the schoolbook CLI binary.
package main

import (
	"os"

	_ "github.com/mattn/go-sqlite3"

	cli "schoolbook/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
