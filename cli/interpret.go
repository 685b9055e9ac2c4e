package cli

import (
	"fmt"

	"github.com/mobile-next/gestures/commands"
	"github.com/spf13/cobra"
)

var interpretCmd = &cobra.Command{
	Use:   "interpret [frames]",
	Short: "Run hardware frames through the gesture pipeline",
	Long: `Reads a JSON array of hardware frames (or "-" for stdin) and prints the gestures produced.
An element may also be {"timer": <time>} to fire the pending timer explicitly.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := commands.InterpretRequest{
			FramesPath:             args[0],
			HardwarePropertiesPath: hardwarePropsPath,
			PropsPath:              propsPath,
			TraceOut:               traceOut,
			LogCapacity:            logCapacity,
		}

		response := commands.InterpretCommand(req)
		printJson(response)
		if response.Status == "error" {
			return fmt.Errorf("%s", response.Error)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(interpretCmd)

	interpretCmd.Flags().StringVar(&hardwarePropsPath, "hwprops", "", "JSON file describing the device (default: wheel mouse)")
	interpretCmd.Flags().StringVar(&propsPath, "props", "", "property overrides (.json, .yaml, .toml or .ini)")
	interpretCmd.Flags().StringVar(&traceOut, "trace-out", "", "write the activity log to this file")
	interpretCmd.Flags().IntVar(&logCapacity, "log-capacity", 0, "number of activity log entries kept (default 8192)")
}
