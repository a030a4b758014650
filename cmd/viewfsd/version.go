package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nodewatch/viewfs/pkg/cmdutil"
)

// Version is the version of viewfsd, set by the release process via
// -ldflags; it's left as a placeholder when built directly from source.
var Version = "dev"

func versionMain(command *cobra.Command, arguments []string) error {
	fmt.Println(Version)
	return nil
}

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Shows the viewfsd version",
	Run:   cmdutil.Mainify(versionMain),
}
