// Command births resolves birth versions for localized release data.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/births/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return cli.GetExitCode(err)
}
