// Package pipeline drives one scrape-and-reconcile run for one supplier
// source: acquire, extract, normalize, dedupe, reconcile against the backend
// catalog, then hand off to export. Data flows strictly forward; no stage
// reads a downstream stage's state.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/restocompras/supplier-scraper/internal/catalog"
	"github.com/restocompras/supplier-scraper/internal/extract"
	"github.com/restocompras/supplier-scraper/internal/fetch"
	"github.com/restocompras/supplier-scraper/internal/listing"
	"github.com/restocompras/supplier-scraper/internal/normalize"
	"github.com/restocompras/supplier-scraper/internal/source"
)

// Catalog is the backend surface the pipeline reconciles against.
type Catalog interface {
	Authenticate(ctx context.Context, email, password string) error
	ResolveIdentity(ctx context.Context, email string) (listing.SourceIdentity, error)
	PurgeExisting(ctx context.Context, identityID int64) error
	Match(ctx context.Context, l listing.Listing) (int64, error)
	Submit(ctx context.Context, m listing.Matched) error
}

// Exporter writes the run's matched listings to a local artifact.
type Exporter interface {
	Export(ctx context.Context, items []listing.Matched, supplier string) (string, error)
}

// HistoryStore records run summaries. Implementations must tolerate being
// called with an aborted summary.
type HistoryStore interface {
	RecordRun(ctx context.Context, s Summary) error
}

// Summary is the user-visible outcome of one run.
type Summary struct {
	RunID        string
	Supplier     string
	StartedAt    time.Time
	FinishedAt   time.Time
	Extracted    int
	Dropped      int
	Deduplicated int
	Matched      int
	Submitted    int
	Skipped      int
	Aborted      bool
}

// Pipeline sequences one run. Each supplier gets its own instance with its
// own strategy, catalog client, and in-memory listing set; nothing is shared
// across runs.
type Pipeline struct {
	src      source.Source
	strategy fetch.Strategy
	catalog  Catalog
	exporter Exporter
	history  HistoryStore
	logger   *zap.Logger
}

// New constructs a Pipeline. Exporter and history may be nil.
func New(
	src source.Source,
	strategy fetch.Strategy,
	cat Catalog,
	exporter Exporter,
	history HistoryStore,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		src:      src,
		strategy: strategy,
		catalog:  cat,
		exporter: exporter,
		history:  history,
		logger:   logger.With(zap.String("supplier", src.Name)),
	}
}

// Run executes the full pipeline. A fatal backend condition aborts the run
// and is returned as the error; per-target and per-item failures are logged,
// counted, and skipped.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	sum := Summary{
		RunID:     uuid.NewString(),
		Supplier:  p.src.Name,
		StartedAt: time.Now().UTC(),
	}
	logger := p.logger.With(zap.String("run_id", sum.RunID))

	defer func() {
		sum.FinishedAt = time.Now().UTC()
		if p.history != nil {
			if err := p.history.RecordRun(ctx, sum); err != nil {
				logger.Warn("Failed to record run history", zap.Error(err))
			}
		}
		logger.Info("Run finished",
			zap.Int("extracted", sum.Extracted),
			zap.Int("dropped", sum.Dropped),
			zap.Int("deduplicated", sum.Deduplicated),
			zap.Int("matched", sum.Matched),
			zap.Int("submitted", sum.Submitted),
			zap.Int("skipped", sum.Skipped),
			zap.Bool("aborted", sum.Aborted),
		)
	}()

	raw := p.acquire(ctx, logger)
	sum.Extracted = len(raw)
	ListingsExtracted.Add(float64(len(raw)))

	listings := make([]listing.Listing, 0, len(raw))
	for _, r := range raw {
		l := normalize.Listing(r)
		if !l.Price.IsPositive() {
			sum.Dropped++
			logger.Warn("Dropping listing without a positive price",
				zap.String("title", r.Title),
				zap.String("raw_price", r.Price),
			)
			continue
		}
		listings = append(listings, l)
	}

	deduped, removed := normalize.Dedupe(listings)
	sum.Deduplicated = removed
	if removed > 0 {
		logger.Info("Removed duplicate listings", zap.Int("count", removed))
	}

	matched, err := p.reconcile(ctx, logger, deduped, &sum)
	if err != nil {
		sum.Aborted = true
		return sum, err
	}
	sum.Matched = len(matched)

	if p.exporter != nil && len(matched) > 0 {
		path, err := p.exporter.Export(ctx, matched, p.src.Name)
		if err != nil {
			logger.Error("Failed to export results", zap.Error(err))
		} else {
			logger.Info("Exported results", zap.String("path", path))
		}
	}

	return sum, nil
}

// acquire fetches and extracts every configured target in order. A failing
// target is logged and skipped: a price list that goes partially stale is
// more useful than none.
func (p *Pipeline) acquire(ctx context.Context, logger *zap.Logger) []listing.Raw {
	var out []listing.Raw
	for _, target := range p.src.Targets() {
		content, err := p.strategy.Fetch(ctx, target)
		if err != nil {
			FetchErrors.Inc()
			logger.Error("Failed to acquire target",
				zap.String("target", target),
				zap.Error(err),
			)
			continue
		}

		raws, err := p.extract(content, target)
		if err != nil {
			logger.Error("Failed to extract listings",
				zap.String("target", target),
				zap.Error(err),
			)
			continue
		}

		logger.Info("Extracted listings",
			zap.String("target", target),
			zap.Int("count", len(raws)),
		)
		out = append(out, raws...)
	}
	return out
}

func (p *Pipeline) extract(content fetch.Content, target string) ([]listing.Raw, error) {
	switch {
	case len(content.HTML) > 0:
		return extract.FromHTML(content.HTML, p.src.Selectors, target)
	case p.src.Strategy == source.StrategyPDF:
		return extract.FromLines(content.Rows, target), nil
	default:
		return extract.FromRows(content.Rows, p.src.Columns, target), nil
	}
}

// reconcile runs the backend protocol: authenticate, resolve identity, purge
// stale records, then match and submit each listing in order. A returned
// error is fatal and aborts the remaining listings.
func (p *Pipeline) reconcile(
	ctx context.Context,
	logger *zap.Logger,
	listings []listing.Listing,
	sum *Summary,
) ([]listing.Matched, error) {
	creds := p.src.Credentials
	if err := p.catalog.Authenticate(ctx, creds.Email, creds.Password); err != nil {
		return nil, err
	}

	identity, err := p.catalog.ResolveIdentity(ctx, creds.Email)
	if err != nil {
		return nil, err
	}

	if err := p.catalog.PurgeExisting(ctx, identity.ID); err != nil {
		logger.Warn("Failed to purge existing records, continuing with possible stale data",
			zap.Error(err),
		)
	}

	var matched []listing.Matched
	for _, l := range listings {
		l.SupplierID = identity.ID
		if l.Brand == "" {
			l.Brand = identity.DisplayName
		}
		if l.Description == "" {
			l.Description = l.Name
		}

		catalogID, err := p.catalog.Match(ctx, l)
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			sum.Skipped++
			ListingsSkipped.Inc()
			logger.Warn("No catalog entry matched, skipping listing",
				zap.String("name", l.Name),
			)
			continue
		case catalog.IsFatal(err):
			return matched, err
		case err != nil:
			sum.Skipped++
			ListingsSkipped.Inc()
			logger.Error("Catalog search failed, skipping listing",
				zap.String("name", l.Name),
				zap.Error(err),
			)
			continue
		}

		m := listing.Matched{Listing: l, CatalogID: catalogID}
		if err := p.catalog.Submit(ctx, m); err != nil {
			if catalog.IsFatal(err) {
				return matched, err
			}
			sum.Skipped++
			ListingsSkipped.Inc()
			if errors.Is(err, catalog.ErrNotSubmittable) {
				logger.Warn("Item not currently submittable, skipping",
					zap.String("name", l.Name),
				)
			} else {
				logger.Error("Submission failed, skipping listing",
					zap.String("name", l.Name),
					zap.Error(err),
				)
			}
			continue
		}

		sum.Submitted++
		ListingsSubmitted.Inc()
		matched = append(matched, m)
	}

	return matched, nil
}
