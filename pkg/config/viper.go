// Package config is responsible for initializing the application's configuration.
// It uses the Viper library to read settings from a config file, environment
// variables, and command-line flags, providing a unified configuration system.
package config

import (
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/restocompras/supplier-scraper/internal/logging"
)

// InitConfig initializes the application's configuration using Viper.
// It sets up default values, defines configuration search paths, and enables
// reading from environment variables. This function is designed to be called
// once at application startup so that configuration is loaded and available
// to all other packages.
func InitConfig() {
	// --- Set Search Paths ---
	// Define the name of the config file to look for (without extension).
	viper.SetConfigName("config")
	// Add paths where Viper should look for the config file.
	viper.AddConfigPath(".")                       // Current working directory
	viper.AddConfigPath("/etc/supplier-scraper/")  // System-wide configuration
	viper.AddConfigPath("$HOME/.supplier-scraper") // User-specific configuration

	// --- Set Defaults ---
	// Sensible defaults for key parameters. These are used when the values
	// are not provided in a config file or via environment variables.
	viper.SetDefault("api.base_url", "http://localhost:8080")
	viper.SetDefault("api.timeout", "10s")
	viper.SetDefault("api.requests_per_second", 4.0)
	viper.SetDefault("api.login_path", "/api/auth/login")
	viper.SetDefault("api.supplier_search_path", "/api/suppliers/search")
	viper.SetDefault("api.supplier_items_path", "/api/item/supplier")
	viper.SetDefault("api.product_search_path", "/api/products/search/best-match")
	viper.SetDefault("api.item_path", "/api/item")

	const defaultUA = "SupplierScraper/1.0 (+https://github.com/restocompras/supplier-scraper)"
	viper.SetDefault("fetch.user_agent", defaultUA)
	viper.SetDefault("fetch.request_timeout", "15s")
	viper.SetDefault("fetch.render_timeout", "30s")
	viper.SetDefault("fetch.scroll_cycles", 3)
	viper.SetDefault("fetch.scroll_delay", "2s")

	viper.SetDefault("export.output_dir", "output")
	viper.SetDefault("export.format", "xlsx")

	viper.SetDefault("history.dsn", "")
	viper.SetDefault("history.table", "runs")
	viper.SetDefault("history.max_conns", 4)

	viper.SetDefault("ops.enabled", false)
	viper.SetDefault("ops.addr", ":9090")

	viper.SetDefault("logging.development", false)

	// --- Environment Variables ---
	viper.SetEnvPrefix("SCRAPER") // e.g., SCRAPER_API_BASE_URL=https://backend.example
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// --- Read Config File ---
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; not fatal since defaults and environment
			// variables still apply.
			logging.L.Warn("Config file not found; using defaults and environment variables.")
		} else {
			logging.L.Error("Error reading config file", zap.Error(err))
		}
	} else {
		logging.L.Info("Using config file", zap.String("path", viper.ConfigFileUsed()))
	}
}
