package main

import (
	"github.com/spf13/cobra"

	"github.com/nodewatch/viewfs/pkg/cmdutil"
)

func rootMain(command *cobra.Command, arguments []string) error {
	return command.Help()
}

var rootCommand = &cobra.Command{
	Use:   "viewfsd",
	Short: "viewfsd maintains an in-memory view of a watched directory tree",
	Run:   cmdutil.Mainify(rootMain),
}

var rootConfiguration struct {
	help bool
}

func init() {
	flags := rootCommand.Flags()
	flags.BoolVarP(&rootConfiguration.help, "help", "h", false, "Show help information")

	cobra.EnableCommandSorting = false

	rootCommand.AddCommand(
		watchCommand,
		versionCommand,
	)
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		cmdutil.Fatal(err)
	}
}
