// Package fetch implements the acquisition strategies: static HTTP fetch,
// browser-rendered fetch, and structured price-list files. Each source is
// configured with exactly one strategy.
package fetch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/restocompras/supplier-scraper/internal/source"
)

// Content is what a strategy yields for one target: markup for web sources,
// raw row records for price-list files.
type Content struct {
	HTML []byte
	Rows [][]string
}

// Strategy abstracts how raw content is obtained. Close must release any
// long-lived resources (notably the rendered strategy's browser session) and
// is safe to call on every exit path.
type Strategy interface {
	Fetch(ctx context.Context, target string) (Content, error)
	Close(ctx context.Context) error
}

// Error marks a per-target acquisition failure. The pipeline treats it as
// recoverable: log, skip the target, continue with the next.
type Error struct {
	Target string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.Target, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Target, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Config carries the acquisition knobs shared by all strategies. All values
// originate from Viper.
type Config struct {
	UserAgent      string
	RequestTimeout time.Duration
	RenderTimeout  time.Duration
	ScrollCycles   int
	ScrollDelay    time.Duration
}

// New constructs the strategy a source declares.
func New(src source.Source, cfg Config, logger *zap.Logger) (Strategy, error) {
	switch src.Strategy {
	case source.StrategyStatic:
		return NewStatic(cfg, logger)
	case source.StrategyRendered:
		return NewRendered(cfg, logger)
	case source.StrategyExcel, source.StrategyPDF:
		return NewFile(src.Strategy, src.Sheet, logger), nil
	default:
		return nil, fmt.Errorf("no strategy implementation for %q", src.Strategy)
	}
}
