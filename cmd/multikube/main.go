package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aryankumar/multikube/internal/cli"
	"github.com/aryankumar/multikube/internal/util"
)

func main() {
	ctx := util.SetupSignalHandler()

	if err := cli.Execute(ctx); err != nil {
		// Per-cluster failures were already reported with the output.
		if !errors.Is(err, util.ErrPartialFailure) {
			fmt.Fprintln(os.Stderr, "Error:", util.FriendlyError(err))
		}
		os.Exit(1)
	}
}
