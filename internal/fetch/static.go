package fetch

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// Static fetches fully server-rendered pages with a single bounded GET.
type Static struct {
	base   *colly.Collector
	logger *zap.Logger
}

// NewStatic constructs a Colly-backed static strategy.
func NewStatic(cfg Config, logger *zap.Logger) (*Static, error) {
	base := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.Async(true),
	)
	base.AllowURLRevisit = false
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          32,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.RequestTimeout,
		ForceAttemptHTTP2:     true,
	})
	base.SetRequestTimeout(cfg.RequestTimeout)

	return &Static{base: base, logger: logger}, nil
}

// Fetch retrieves one page. Timeouts, connection failures, and non-2xx
// statuses surface as *Error so the pipeline skips the target and moves on.
func (s *Static) Fetch(ctx context.Context, target string) (Content, error) {
	collector := s.base.Clone()

	resultCh := make(chan staticResult, 1)
	var once sync.Once
	send := func(res staticResult) {
		once.Do(func() { resultCh <- res })
	}

	collector.OnResponse(func(r *colly.Response) {
		send(staticResult{body: append([]byte{}, r.Body...), status: r.StatusCode})
	})
	collector.OnError(func(r *colly.Response, err error) {
		if err == nil {
			err = errors.New("unknown colly error")
		}
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		send(staticResult{status: status, err: err})
	})

	if err := collector.Visit(target); err != nil {
		return Content{}, &Error{Target: target, Err: err}
	}
	collector.Wait()

	select {
	case res := <-resultCh:
		if err := ctx.Err(); err != nil {
			return Content{}, err
		}
		if res.err != nil {
			return Content{}, &Error{Target: target, Status: res.status, Err: res.err}
		}
		s.logger.Debug("Fetched static page",
			zap.String("target", target),
			zap.Int("bytes", len(res.body)),
		)
		return Content{HTML: res.body}, nil
	default:
		return Content{}, &Error{Target: target, Err: errors.New("fetch produced no result")}
	}
}

// Close is a no-op; the static strategy holds no long-lived resources.
func (s *Static) Close(context.Context) error { return nil }

type staticResult struct {
	body   []byte
	status int
	err    error
}
