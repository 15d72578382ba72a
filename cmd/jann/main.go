package main

import (
	"github.com/jgbyrne/jann/pkg/lib"
)

// version is the release version; overridable at build time.
var version = "0.1.0"

func main() {
	rootCmd.AddCommand(initCmd, listCmd, doctorCmd)
	if err := rootCmd.Execute(); err != nil {
		lib.Exit(err)
	}
}
