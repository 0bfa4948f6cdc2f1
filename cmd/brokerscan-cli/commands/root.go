package commands

import (
	"context"
	"fmt"
	"os"

	"brokerscan/lib/telemetry"

	"github.com/spf13/cobra"
)

var verbose *bool

func init() {
	verbose = rootCmd.PersistentFlags().BoolP(
		"verbose", "v", false, "Enable debug logging and request dumps.")
}

var rootCmd = &cobra.Command{
	Use:   "brokerscan-cli",
	Short: "brokerscan-cli scrapes resident mobile contacts off the brokers platform.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
