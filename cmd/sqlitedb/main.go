package main

import (
	"os"

	"github.com/gourav-shinde/sqliteDBManager/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
