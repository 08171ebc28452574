// Package cmd defines and implements the CLI commands for the scraper executable.
package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/restocompras/supplier-scraper/internal/logging"
	"github.com/restocompras/supplier-scraper/pkg/config"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "supplier-scraper",
		Short: "Collects supplier price listings and reconciles them with the catalog backend.",
		Long: `supplier-scraper fetches price listings from configured supplier
sources (web pages, rendered storefronts, spreadsheets and PDF price lists),
normalizes them into a common shape, and submits the results to the catalog
backend so every supplier's prices stay current.`,
	}

	// Initialize Viper configuration.
	cobra.OnInitialize(config.InitConfig)

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	cmd.AddCommand(newScrapeCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	// Initialize the logger once at the very start.
	logging.InitLogger()

	if err := newRootCmd().Execute(); err != nil {
		logging.L.Fatal("Command execution failed", zap.Error(err))
	}
}
