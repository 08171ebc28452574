package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/restocompras/supplier-scraper/internal/catalog"
	"github.com/restocompras/supplier-scraper/internal/export"
	"github.com/restocompras/supplier-scraper/internal/fetch"
	"github.com/restocompras/supplier-scraper/internal/history"
	"github.com/restocompras/supplier-scraper/internal/logging"
	"github.com/restocompras/supplier-scraper/internal/ops"
	"github.com/restocompras/supplier-scraper/internal/pipeline"
	"github.com/restocompras/supplier-scraper/internal/source"
)

// newScrapeCmd creates and configures the 'scrape' subcommand. It runs the
// full pipeline for each named supplier, or for every configured supplier
// when no names are given.
func newScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape [supplier...]",
		Short: "Scrapes supplier price listings and submits them to the backend",
		Long: `Fetches every configured target of the named suppliers, extracts and
normalizes their listings, and reconciles the result against the catalog
backend. Without arguments every supplier in the configuration is scraped.`,

		RunE: runScrapeCommand,
	}
	return cmd
}

func runScrapeCommand(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := logging.L
	v := viper.GetViper()

	names := args
	if len(names) == 0 {
		names = source.List(v)
	}
	if len(names) == 0 {
		return errors.New("no suppliers configured")
	}

	opsServer := startOpsServer(v, logger)
	if opsServer != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := opsServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Failed to shut down ops server", zap.Error(err))
			}
		}()
	}

	exporter, err := export.New(
		v.GetString("export.format"),
		v.GetString("export.output_dir"),
		logger,
	)
	if err != nil {
		return fmt.Errorf("init exporter: %w", err)
	}

	historyStore, err := buildHistoryStore(ctx, v)
	if err != nil {
		return fmt.Errorf("init history store: %w", err)
	}
	if historyStore != nil {
		defer historyStore.Close()
	}

	var failed []string
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := scrapeSupplier(ctx, v, name, exporter, historyStore, logger); err != nil {
			logger.Error("Supplier run failed",
				zap.String("supplier", name),
				zap.Error(err),
			)
			failed = append(failed, name)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("runs failed for suppliers: %v", failed)
	}

	logging.L.Info("Scrape command finished.")
	return nil
}

func scrapeSupplier(
	ctx context.Context,
	v *viper.Viper,
	name string,
	exporter export.Writer,
	historyStore *history.Store,
	logger *zap.Logger,
) error {
	src, err := source.Load(v, name)
	if err != nil {
		return fmt.Errorf("load supplier %q: %w", name, err)
	}

	strategy, err := fetch.New(src, fetchConfig(v), logger)
	if err != nil {
		return fmt.Errorf("init fetch strategy: %w", err)
	}
	defer func() {
		if cerr := strategy.Close(ctx); cerr != nil {
			logger.Warn("Failed to close fetch strategy", zap.Error(cerr))
		}
	}()

	client := catalog.NewClient(catalogConfig(v), logger)

	p := pipeline.New(src, strategy, client, exporter, historyAdapter(historyStore), logger)
	if _, err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run pipeline: %w", err)
	}
	return nil
}

func fetchConfig(v *viper.Viper) fetch.Config {
	return fetch.Config{
		UserAgent:      v.GetString("fetch.user_agent"),
		RequestTimeout: v.GetDuration("fetch.request_timeout"),
		RenderTimeout:  v.GetDuration("fetch.render_timeout"),
		ScrollCycles:   v.GetInt("fetch.scroll_cycles"),
		ScrollDelay:    v.GetDuration("fetch.scroll_delay"),
	}
}

func catalogConfig(v *viper.Viper) catalog.Config {
	return catalog.Config{
		BaseURL:           v.GetString("api.base_url"),
		LoginPath:         v.GetString("api.login_path"),
		IdentityPath:      v.GetString("api.supplier_search_path"),
		PurgePath:         v.GetString("api.supplier_items_path"),
		SearchPath:        v.GetString("api.product_search_path"),
		ItemPath:          v.GetString("api.item_path"),
		Timeout:           v.GetDuration("api.timeout"),
		RequestsPerSecond: v.GetFloat64("api.requests_per_second"),
	}
}

func buildHistoryStore(ctx context.Context, v *viper.Viper) (*history.Store, error) {
	dsn := v.GetString("history.dsn")
	if dsn == "" {
		return nil, nil
	}
	return history.NewStore(ctx, history.Config{
		DSN:      dsn,
		Table:    v.GetString("history.table"),
		MaxConns: v.GetInt32("history.max_conns"),
	})
}

// historyAdapter avoids handing the pipeline a non-nil interface wrapping a
// nil *history.Store.
func historyAdapter(s *history.Store) pipeline.HistoryStore {
	if s == nil {
		return nil
	}
	return s
}

func startOpsServer(v *viper.Viper, logger *zap.Logger) *ops.Server {
	if !v.GetBool("ops.enabled") {
		return nil
	}
	server := ops.NewServer(v.GetString("ops.addr"), logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Error("Ops server failed", zap.Error(err))
		}
	}()
	return server
}
