package cli

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/mobile-next/gestures/utils"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "gestures",
	Short: "Input gesture interpreter with activity log replay",
	Long:  `Turns raw pointing-device frames into gestures, records what happened and replays recorded activity logs`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func initConfig() {
	utils.SetVerbose(verbose)
	utils.SetJSON(jsonLogs)
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "log-json", false, "write logs as JSON")
}

// Execute runs the root command
func Execute() error {
	// enable microseconds in logs
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	rootCmd.Version = utils.Version()

	return rootCmd.Execute()
}

// printJson is a helper function to print JSON responses
func printJson(data interface{}) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Fprintln(rootCmd.OutOrStdout(), string(jsonData))
}
