// Package cli implements the chat command line: joining a room as a
// participant and issuing room links.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sanusharma-ui/chat/internal/logging"
	"github.com/sanusharma-ui/chat/internal/ui"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "chat",
	Short: "Anonymous two-person chat and video calls over WebRTC",
	Long: `Chat pairs exactly two anonymous participants into a private room and
negotiates a direct, encrypted peer-to-peer session between their devices.
The server only relays signaling metadata; media never touches it.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init("")
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. It only needs to happen once.
func Execute() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}
