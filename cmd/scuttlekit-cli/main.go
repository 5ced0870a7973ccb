// Package main provides the entry point for scuttlekit-cli.
//
// scuttlekit-cli lists and revokes app tokens in a node's token store and
// registers apps with, or checks the status of, a running gateway.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/scuttlekit-go/internal/cli/command"
)

func main() {
	if err := command.App().Run(os.Args); err != nil {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			if msg := exitErr.Error(); msg != "" {
				fmt.Fprintf(os.Stderr, "error: %s\n", msg)
			}
			os.Exit(exitErr.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
