package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	verbose    bool
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dutchd",
	Short: "dutchd - reverse Dutch auction exchange daemon",
	Long: `dutchd runs a reverse Dutch auction exchange: sellers escrow a
fungible asset and offer it at a price that decays linearly over a fixed
window until a buyer executes, the seller cancels, or the window expires.

The daemon exposes an HTTP JSON-RPC API and a WebSocket stream of auction
events, persists every event to an append-only log, and can mirror
auction state into a relational index for querying.`,
	Version: "1.0.0",
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output to console after startup")
}
