// Command karma is the point of sale CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/karmapos/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Commands that fail through the formatter have already printed
		// their error; anything else (flag parsing, arg counts) has not.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
