// Package catalog is the only component that talks to the backend. It owns
// the per-run authentication lifecycle, the dual-attempt name match, stale
// record purging, and item submission.
package catalog

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/restocompras/supplier-scraper/internal/listing"
)

// Config carries the backend endpoints and request pacing. All values
// originate from Viper; the zero paths fall back to the backend defaults.
type Config struct {
	BaseURL           string
	LoginPath         string
	IdentityPath      string
	PurgePath         string
	SearchPath        string
	ItemPath          string
	Timeout           time.Duration
	RequestsPerSecond float64
}

func (c *Config) applyDefaults() {
	if c.LoginPath == "" {
		c.LoginPath = "/api/auth/login"
	}
	if c.IdentityPath == "" {
		c.IdentityPath = "/api/suppliers/search"
	}
	if c.PurgePath == "" {
		c.PurgePath = "/api/item/supplier"
	}
	if c.SearchPath == "" {
		c.SearchPath = "/api/products/search/best-match"
	}
	if c.ItemPath == "" {
		c.ItemPath = "/api/item"
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
}

// Client talks to the backend catalog API. The bearer token acquired by
// Authenticate is held on the client instance for exactly one run; there is
// no process-wide token state.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	logger  *zap.Logger
	cfg     Config
}

// NewClient constructs a Client. The rate limiter paces every outgoing
// request so sequential reconciliation keeps backend load predictable.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	cfg.applyDefaults()

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	hc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")

	return &Client{
		http:    hc,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
		cfg:     cfg,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Authenticate logs in with the supplier's credentials and stores the bearer
// token on the client. Any non-success response is fatal: an authentication
// failure invalidates every subsequent step, so it is neither retried nor
// skipped.
func (c *Client) Authenticate(ctx context.Context, email, password string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &FatalError{Op: "authenticate", Err: err}
	}

	var body loginResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(loginRequest{Email: email, Password: password}).
		SetResult(&body).
		Post(c.cfg.LoginPath)
	if err != nil {
		return &FatalError{Op: "authenticate", Err: err}
	}
	if resp.IsError() {
		return &FatalError{Op: "authenticate", Err: fmt.Errorf("backend returned status %d", resp.StatusCode())}
	}
	if body.Token == "" {
		return &FatalError{Op: "authenticate", Err: fmt.Errorf("backend returned no token")}
	}

	c.http.SetAuthToken(body.Token)
	c.logger.Info("Authenticated with backend", zap.String("email", email))
	return nil
}

type identityResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ResolveIdentity fetches the supplier record the backend holds for these
// credentials. The result is the sole source of identity for every listing
// in the run; a missing identity is fatal.
func (c *Client) ResolveIdentity(ctx context.Context, email string) (listing.SourceIdentity, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return listing.SourceIdentity{}, &FatalError{Op: "resolve identity", Err: err}
	}

	var body identityResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("email", email).
		SetResult(&body).
		Get(c.cfg.IdentityPath)
	if err != nil {
		return listing.SourceIdentity{}, &FatalError{Op: "resolve identity", Err: err}
	}
	if resp.IsError() {
		return listing.SourceIdentity{}, &FatalError{
			Op:  "resolve identity",
			Err: fmt.Errorf("backend returned status %d", resp.StatusCode()),
		}
	}
	if body.ID == 0 {
		return listing.SourceIdentity{}, &FatalError{
			Op:  "resolve identity",
			Err: fmt.Errorf("no supplier identity for %s", email),
		}
	}

	c.logger.Info("Resolved supplier identity",
		zap.Int64("id", body.ID),
		zap.String("name", body.Name),
	)
	return listing.SourceIdentity{ID: body.ID, DisplayName: body.Name}, nil
}

// PurgeExisting bulk-deletes previously submitted records for this identity
// so the backend reflects only the current run's findings. Failure is
// non-fatal: stale duplicates beat aborting the whole run.
func (c *Client) PurgeExisting(ctx context.Context, identityID int64) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		Delete(fmt.Sprintf("%s/%d", c.cfg.PurgePath, identityID))
	if err != nil {
		return fmt.Errorf("purge supplier %d: %w", identityID, err)
	}
	if resp.IsError() {
		return fmt.Errorf("purge supplier %d: backend returned status %d", identityID, resp.StatusCode())
	}
	return nil
}

type searchRequest struct {
	Query string `json:"query"`
}

type searchResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Match resolves a listing to a backend catalog entry using the dual-attempt
// lookup: first the full descriptive name, then the first two whitespace
// tokens. Catalog entries are frequently keyed by a shorter canonical phrase
// than scraped titles carry, which is what the second attempt is for. A miss
// on both attempts is ErrNotFound: a normal business outcome, not an error.
func (c *Client) Match(ctx context.Context, l listing.Listing) (int64, error) {
	query := l.SearchName()
	id, err := c.search(ctx, query)
	if err != nil {
		return 0, err
	}
	if id != 0 {
		return id, nil
	}

	words := strings.Fields(l.Name)
	if len(words) >= 2 {
		short := strings.Join(words[:2], " ")
		c.logger.Debug("Full-name search missed, trying shortened name",
			zap.String("query", query),
			zap.String("short", short),
		)
		id, err = c.search(ctx, short)
		if err != nil {
			return 0, err
		}
		if id != 0 {
			return id, nil
		}
	}

	return 0, ErrNotFound
}

func (c *Client) search(ctx context.Context, query string) (int64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	var body searchResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(searchRequest{Query: query}).
		SetResult(&body).
		Post(c.cfg.SearchPath)
	if err != nil {
		return 0, fmt.Errorf("search %q: %w", query, err)
	}
	switch {
	case resp.StatusCode() == http.StatusUnauthorized:
		return 0, ErrUnauthorized
	case resp.StatusCode() == http.StatusNotFound:
		return 0, nil
	case resp.IsError():
		return 0, fmt.Errorf("search %q: backend returned status %d", query, resp.StatusCode())
	}
	return body.ID, nil
}

type itemRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	ProductID   int64           `json:"productId"`
	Unit        string          `json:"unit"`
	Quantity    int             `json:"quantity"`
	SupplierID  int64           `json:"supplierId"`
	Brand       string          `json:"brand"`
}

// Submit posts one matched listing. 404 means "not currently submittable"
// (per-item skip, ErrNotSubmittable); 401 means the token died mid-run
// (ErrUnauthorized, fatal: every remaining request would fail identically);
// 5xx is a per-item skip so one downstream failure does not stop the rest.
func (c *Client) Submit(ctx context.Context, m listing.Matched) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(itemRequest{
			Name:        m.Name,
			Description: m.Description,
			Price:       m.Price,
			Image:       m.ImageURL,
			ProductID:   m.CatalogID,
			Unit:        string(m.Unit),
			Quantity:    m.Quantity,
			SupplierID:  m.SupplierID,
			Brand:       m.Brand,
		}).
		Post(c.cfg.ItemPath)
	if err != nil {
		return fmt.Errorf("submit %q: %w", m.Name, err)
	}

	switch {
	case resp.StatusCode() == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode() == http.StatusNotFound:
		return fmt.Errorf("submit %q: %w", m.Name, ErrNotSubmittable)
	case resp.IsError():
		return fmt.Errorf("submit %q: backend returned status %d", m.Name, resp.StatusCode())
	}

	c.logger.Debug("Submitted item",
		zap.String("name", m.Name),
		zap.Int64("catalog_id", m.CatalogID),
	)
	return nil
}
