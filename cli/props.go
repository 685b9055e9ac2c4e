package cli

import (
	"fmt"

	"github.com/mobile-next/gestures/commands"
	"github.com/spf13/cobra"
)

var propsCmd = &cobra.Command{
	Use:   "props",
	Short: "List the properties of the standard pipeline",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		response := commands.PropertiesCommand(commands.PropertiesRequest{PropsPath: propsPath})
		printJson(response)
		if response.Status == "error" {
			return fmt.Errorf("%s", response.Error)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(propsCmd)

	propsCmd.Flags().StringVar(&propsPath, "props", "", "show values after applying these overrides")
}
