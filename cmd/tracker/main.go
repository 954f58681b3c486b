package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// .env is optional, used for local development.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:          "tracker",
		Short:        "Collects BOM forecasts and tracks how they change day to day",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(collectCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(geocodeCmd())
	rootCmd.AddCommand(validateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
