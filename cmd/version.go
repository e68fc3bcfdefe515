package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// Version is set at build time via -ldflags
var Version = "dev"

func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print the vectable version",
		Action: func(_ context.Context, _ *cli.Command) error {
			fmt.Printf("vectable %s\n", Version)
			return nil
		},
	}
}
