// Command doerun generates and dispatches design-of-experiments simulation runs.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/doerun/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err == nil {
		return
	}

	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		// Commands report their own errors through the output formatter.
		os.Exit(exitErr.Code)
	}

	// Flag and argument errors from cobra itself.
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(cli.ExitCommandError)
}
