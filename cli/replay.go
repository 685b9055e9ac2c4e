package cli

import (
	"fmt"

	"github.com/mobile-next/gestures/commands"
	"github.com/mobile-next/gestures/replay"
	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay [trace]",
	Short: "Replay an activity log and report divergences",
	Long: `Parses a recorded activity log, feeds its inputs through a fresh pipeline and compares
the gestures and timer requests with the recorded ones. Exits non-zero on any divergence.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := commands.ReplayRequest{
			TracePath:  args[0],
			HonorProps: honorProps,
			PropsPath:  propsPath,
		}

		response := commands.ReplayCommand(req)
		printJson(response)
		if response.Status == "error" {
			return fmt.Errorf("%s", response.Error)
		}

		if report, ok := response.Data.(replay.Report); ok && !report.OK() {
			return fmt.Errorf("replay diverged in %d places", len(report.Divergences))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().StringSliceVar(&honorProps, "honor", nil, "only apply these recorded properties (default: all)")
	replayCmd.Flags().StringVar(&propsPath, "props", "", "property overrides applied before the recorded ones")
}
