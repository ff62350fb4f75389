// Command enginectl is the operator CLI for the strategy engine: start,
// stop, and inspect DPI-bypass strategies against a running registry.
package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
)

var (
	version = "undefined"
	build   = "undefined"
)

func main() {
	parser := flags.NewNamedParser("enginectl", flags.Default)

	parser.AddCommand("start", StartCommandDescription, StartCommandDescription, &StartCommand{})
	parser.AddCommand("stop", StopCommandDescription, StopCommandDescription, &StopCommand{})
	parser.AddCommand("stop-all", StopAllCommandDescription, StopAllCommandDescription, &StopAllCommand{})
	parser.AddCommand("list", ListCommandDescription, ListCommandDescription, &ListCommand{})
	parser.AddCommand("score", ScoreCommandDescription, ScoreCommandDescription, &ScoreCommand{})

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		fmt.Println()
		parser.WriteHelp(os.Stdout)
		fmt.Printf("\nBuild information\n  commit: %s\n  date: %s\n", version, build)
		os.Exit(1)
	}
}
