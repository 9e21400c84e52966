// Package cmd - stockd CLI commands
package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "stockd",
	Short: "SynergyAlpha stock data service - CLI",
	Long: `SynergyAlpha stock data service - CLI

Commands:
    serve     - run the API server with the background update loop
    update    - one-shot batch update for the given symbols
`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(updateCmd)
}

func initConfig() error {
	if err := godotenv.Load(); err != nil {
		if verbose {
			fmt.Println("Warning: .env file not found, using environment variables")
		}
	}
	return nil
}
