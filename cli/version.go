package cli

import (
	"fmt"

	"github.com/mobile-next/gestures/utils"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), utils.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
