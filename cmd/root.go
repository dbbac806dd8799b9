package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "campwatch",
		Short:         "Watch Ontario Parks for bookable weekend campsites and send a message when new ones open up",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newVersionCmd())
	root.AddCommand(newWatchCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newWindowsCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newRunsCmd())

	return root
}

func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
