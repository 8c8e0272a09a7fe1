// Command pdquery renders and runs portable query documents.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/enquinity/pdquery/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		// Commands report their own failures; only errors raised before a
		// command ran (unknown command, bad arguments) are printed here.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) || exitErr.Err == nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
	}
	os.Exit(cli.GetExitCode(err))
}
