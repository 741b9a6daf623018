// Command cryptonews posts the latest crypto.news article, summarized and translated, to a Telegram channel.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/deusflow/cryptonews/internal/config"
	"github.com/deusflow/cryptonews/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "cryptonews",
	Short: "Crypto news to Telegram",
	Long:  "Fetches the latest crypto.news article, summarizes it, translates it to Russian and posts it to a Telegram channel. Meant to be run by a scheduler.",
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.Init(config.DebugEnabled())
	},
	SilenceUsage: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
