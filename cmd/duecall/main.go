// Package main is the duecall command: it arms the overdue task reminder
// schedule, serves the admin API and runs one-off reminder passes.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
