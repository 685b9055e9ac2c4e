package cli

import (
	"fmt"
	"time"

	"github.com/mobile-next/gestures/daemon"
	"github.com/mobile-next/gestures/server"
	"github.com/spf13/cobra"
)

const (
	defaultServerAddress = "localhost:12000"
	daemonStartTimeout   = 5 * time.Second
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Server management commands",
	Long:  `Commands for managing the gestures server.`,
}

var serverStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the gestures server",
	Long: `Starts the gestures server. Sessions are driven over JSON-RPC on /rpc and /ws.
Settings not given as flags come from GESTURES_* environment variables.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// empty falls back to GESTURES_LISTEN
		listenAddr := cmd.Flag("listen").Value.String()

		// GetBool/GetString cannot fail for defined flags
		enableCORS, _ := cmd.Flags().GetBool("cors")
		isDaemon, _ := cmd.Flags().GetBool("daemon")

		if isDaemon && !daemon.IsChild() {
			_, err := daemon.Daemonize()
			if err != nil {
				return fmt.Errorf("failed to start daemon: %w", err)
			}

			addr := listenAddr
			if addr == "" {
				addr = defaultServerAddress
				if cfg, err := server.LoadConfig(); err == nil {
					addr = cfg.Listen
				}
			}
			fmt.Printf("Server daemon spawned, attempting to listen on %s\n", addr)

			version, err := daemon.WaitReady(addr, daemonStartTimeout)
			if err != nil {
				return err
			}
			fmt.Printf("Server %s is ready\n", version)
			return nil
		}

		return server.StartServer(listenAddr, enableCORS)
	},
}

var serverKillCmd = &cobra.Command{
	Use:   "kill",
	Short: "Stop the daemonized gestures server",
	Long:  `Connects to the server and sends a shutdown command via JSON-RPC.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// GetString cannot fail for defined flags
		addr, _ := cmd.Flags().GetString("listen")
		if addr == "" {
			addr = defaultServerAddress
		}

		err := daemon.KillServer(addr)
		if err != nil {
			return err
		}

		fmt.Printf("Server shutdown command sent successfully\n")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	// add server subcommands
	serverCmd.AddCommand(serverStartCmd)
	serverCmd.AddCommand(serverKillCmd)

	// server start flags
	serverStartCmd.Flags().String("listen", "", "Address to listen on (e.g., 'localhost:12000' or '0.0.0.0:13000')")
	serverStartCmd.Flags().Bool("cors", false, "Enable CORS support")
	serverStartCmd.Flags().BoolP("daemon", "d", false, "Run server in daemon mode (background)")

	// server kill flags
	serverKillCmd.Flags().String("listen", "", fmt.Sprintf("Address of server to kill (default: %s)", defaultServerAddress))
}
