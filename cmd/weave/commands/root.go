package commands

import (
	"github.com/spf13/cobra"
)

var (
	_config = NewDefaultCLIConfig()
)

//RootCmd is the root command for weave
var RootCmd = &cobra.Command{
	Use:              "weave",
	Short:            "distributed graph of message-forwarding nodes",
	TraverseChildren: true,
}
