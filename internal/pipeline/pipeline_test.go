package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/restocompras/supplier-scraper/internal/catalog"
	"github.com/restocompras/supplier-scraper/internal/fetch"
	"github.com/restocompras/supplier-scraper/internal/listing"
	"github.com/restocompras/supplier-scraper/internal/source"
)

// MockStrategy is a mock implementation of the fetch.Strategy interface.
type MockStrategy struct {
	mock.Mock
}

func (m *MockStrategy) Fetch(ctx context.Context, target string) (fetch.Content, error) {
	args := m.Called(ctx, target)
	return args.Get(0).(fetch.Content), args.Error(1)
}

func (m *MockStrategy) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockCatalog is a mock implementation of the Catalog interface.
type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) Authenticate(ctx context.Context, email, password string) error {
	args := m.Called(ctx, email, password)
	return args.Error(0)
}

func (m *MockCatalog) ResolveIdentity(ctx context.Context, email string) (listing.SourceIdentity, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(listing.SourceIdentity), args.Error(1)
}

func (m *MockCatalog) PurgeExisting(ctx context.Context, identityID int64) error {
	args := m.Called(ctx, identityID)
	return args.Error(0)
}

func (m *MockCatalog) Match(ctx context.Context, l listing.Listing) (int64, error) {
	args := m.Called(ctx, l)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCatalog) Submit(ctx context.Context, matched listing.Matched) error {
	args := m.Called(ctx, matched)
	return args.Error(0)
}

// MockExporter is a mock implementation of the Exporter interface.
type MockExporter struct {
	mock.Mock
}

func (m *MockExporter) Export(ctx context.Context, items []listing.Matched, supplier string) (string, error) {
	args := m.Called(ctx, items, supplier)
	return args.String(0), args.Error(1)
}

// MockHistory is a mock implementation of the HistoryStore interface.
type MockHistory struct {
	mock.Mock
}

func (m *MockHistory) RecordRun(ctx context.Context, s Summary) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func testSource(urls ...string) source.Source {
	return source.Source{
		Name:     "greenshop",
		Strategy: source.StrategyStatic,
		URLs:     urls,
		Selectors: map[string]string{
			"product_list": ".product",
			"title":        ".title",
			"price":        ".price",
		},
		Credentials: source.Credentials{
			Email:    "greenshop@example.com",
			Password: "hunter2",
		},
	}
}

func productPage(items ...[2]string) fetch.Content {
	markup := "<html><body>"
	for _, it := range items {
		markup += fmt.Sprintf(
			`<div class="product"><span class="title">%s</span><span class="price">%s</span></div>`,
			it[0], it[1],
		)
	}
	markup += "</body></html>"
	return fetch.Content{HTML: []byte(markup)}
}

func expectBackend(cat *MockCatalog) {
	cat.On("Authenticate", mock.Anything, "greenshop@example.com", "hunter2").Return(nil)
	cat.On("ResolveIdentity", mock.Anything, "greenshop@example.com").
		Return(listing.SourceIdentity{ID: 42, DisplayName: "Green Shop"}, nil)
	cat.On("PurgeExisting", mock.Anything, int64(42)).Return(nil)
}

func TestRunEndToEnd(t *testing.T) {
	t.Parallel()

	// The same product appears on two different pages; it must collapse to a
	// single submission.
	src := testSource("https://greenshop.example/p1", "https://greenshop.example/p2")
	strategy := new(MockStrategy)
	strategy.On("Fetch", mock.Anything, src.URLs[0]).
		Return(productPage([2]string{"0102 Tomate Cherry 500 gr", "$1.234,50"}), nil)
	strategy.On("Fetch", mock.Anything, src.URLs[1]).
		Return(productPage([2]string{"0102 Tomate Cherry 500 gr", "$1.234,50"}), nil)

	cat := new(MockCatalog)
	expectBackend(cat)
	cat.On("Match", mock.Anything, mock.MatchedBy(func(l listing.Listing) bool {
		return l.Name == "Tomate Cherry" && l.Quantity == 500 && l.Unit == listing.UnitGram
	})).Return(int64(123), nil).Once()
	cat.On("Submit", mock.Anything, mock.MatchedBy(func(m listing.Matched) bool {
		return m.CatalogID == 123 && m.SupplierID == 42 && m.Brand == "Green Shop" &&
			m.Price.String() == "1234.5"
	})).Return(nil).Once()

	exporter := new(MockExporter)
	exporter.On("Export", mock.Anything, mock.Anything, "greenshop").Return("out.xlsx", nil).Once()

	history := new(MockHistory)
	history.On("RecordRun", mock.Anything, mock.Anything).Return(nil).Once()

	p := New(src, strategy, cat, exporter, history, zap.NewNop())
	sum, err := p.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 2, sum.Extracted)
	require.Equal(t, 1, sum.Deduplicated)
	require.Equal(t, 1, sum.Matched)
	require.Equal(t, 1, sum.Submitted)
	require.Zero(t, sum.Skipped)
	require.False(t, sum.Aborted)
	require.NotEmpty(t, sum.RunID)

	strategy.AssertExpectations(t)
	cat.AssertExpectations(t)
	exporter.AssertExpectations(t)
	history.AssertExpectations(t)
}

func TestRunDropsNonPositivePricesBeforeReconciliation(t *testing.T) {
	t.Parallel()

	src := testSource("https://greenshop.example/p1")
	strategy := new(MockStrategy)
	strategy.On("Fetch", mock.Anything, src.URLs[0]).Return(productPage(
		[2]string{"Tomate Cherry 500 gr", "consultar"},
		[2]string{"Papa Negra 2 kg", "$800"},
	), nil)

	cat := new(MockCatalog)
	expectBackend(cat)
	// Only the listing with a parseable positive price reaches the catalog.
	cat.On("Match", mock.Anything, mock.MatchedBy(func(l listing.Listing) bool {
		return l.Name == "Papa Negra"
	})).Return(int64(7), nil).Once()
	cat.On("Submit", mock.Anything, mock.Anything).Return(nil).Once()

	p := New(src, strategy, cat, nil, nil, zap.NewNop())
	sum, err := p.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 2, sum.Extracted)
	require.Equal(t, 1, sum.Dropped)
	require.Equal(t, 1, sum.Submitted)
	cat.AssertExpectations(t)
	cat.AssertNumberOfCalls(t, "Match", 1)
}

func TestRunAbortsOnMidRunUnauthorized(t *testing.T) {
	t.Parallel()

	src := testSource("https://greenshop.example/p1")
	strategy := new(MockStrategy)
	strategy.On("Fetch", mock.Anything, src.URLs[0]).Return(productPage(
		[2]string{"Tomate Cherry 500 gr", "$100"},
		[2]string{"Papa Negra 2 kg", "$200"},
		[2]string{"Cebolla 1 kg", "$300"},
	), nil)

	cat := new(MockCatalog)
	expectBackend(cat)
	cat.On("Match", mock.Anything, mock.Anything).Return(int64(1), nil).Twice()
	cat.On("Submit", mock.Anything, mock.MatchedBy(func(m listing.Matched) bool {
		return m.Name == "Tomate Cherry"
	})).Return(nil).Once()
	// The token dies on the second submission; the third listing must never
	// be attempted.
	cat.On("Submit", mock.Anything, mock.MatchedBy(func(m listing.Matched) bool {
		return m.Name == "Papa Negra"
	})).Return(catalog.ErrUnauthorized).Once()

	p := New(src, strategy, cat, nil, nil, zap.NewNop())
	sum, err := p.Run(context.Background())
	require.ErrorIs(t, err, catalog.ErrUnauthorized)

	require.True(t, sum.Aborted)
	require.Equal(t, 1, sum.Submitted)
	cat.AssertExpectations(t)
	cat.AssertNumberOfCalls(t, "Match", 2)
	cat.AssertNumberOfCalls(t, "Submit", 2)
}

func TestRunContinuesPastFailedTarget(t *testing.T) {
	t.Parallel()

	src := testSource("https://greenshop.example/down", "https://greenshop.example/up")
	strategy := new(MockStrategy)
	strategy.On("Fetch", mock.Anything, src.URLs[0]).
		Return(fetch.Content{}, &fetch.Error{Target: src.URLs[0], Err: errors.New("connection refused")})
	strategy.On("Fetch", mock.Anything, src.URLs[1]).
		Return(productPage([2]string{"Papa Negra 2 kg", "$800"}), nil)

	cat := new(MockCatalog)
	expectBackend(cat)
	cat.On("Match", mock.Anything, mock.Anything).Return(int64(7), nil).Once()
	cat.On("Submit", mock.Anything, mock.Anything).Return(nil).Once()

	p := New(src, strategy, cat, nil, nil, zap.NewNop())
	sum, err := p.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, sum.Extracted, "the healthy target still yields listings")
	require.Equal(t, 1, sum.Submitted)
	strategy.AssertExpectations(t)
}

func TestRunAbortsOnAuthenticationFailure(t *testing.T) {
	t.Parallel()

	src := testSource("https://greenshop.example/p1")
	strategy := new(MockStrategy)
	strategy.On("Fetch", mock.Anything, mock.Anything).
		Return(productPage([2]string{"Papa Negra 2 kg", "$800"}), nil)

	cat := new(MockCatalog)
	cat.On("Authenticate", mock.Anything, mock.Anything, mock.Anything).
		Return(&catalog.FatalError{Op: "authenticate", Err: errors.New("status 401")})

	p := New(src, strategy, cat, nil, nil, zap.NewNop())
	sum, err := p.Run(context.Background())
	require.Error(t, err)
	require.True(t, sum.Aborted)
	cat.AssertNotCalled(t, "Match", mock.Anything, mock.Anything)
	cat.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestRunContinuesWhenPurgeFails(t *testing.T) {
	t.Parallel()

	src := testSource("https://greenshop.example/p1")
	strategy := new(MockStrategy)
	strategy.On("Fetch", mock.Anything, mock.Anything).
		Return(productPage([2]string{"Papa Negra 2 kg", "$800"}), nil)

	cat := new(MockCatalog)
	cat.On("Authenticate", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	cat.On("ResolveIdentity", mock.Anything, mock.Anything).
		Return(listing.SourceIdentity{ID: 42, DisplayName: "Green Shop"}, nil)
	cat.On("PurgeExisting", mock.Anything, int64(42)).Return(errors.New("backend returned status 500"))
	cat.On("Match", mock.Anything, mock.Anything).Return(int64(7), nil).Once()
	cat.On("Submit", mock.Anything, mock.Anything).Return(nil).Once()

	p := New(src, strategy, cat, nil, nil, zap.NewNop())
	sum, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, sum.Submitted)
	require.False(t, sum.Aborted)
}

func TestRunSkipsUnmatchedListings(t *testing.T) {
	t.Parallel()

	src := testSource("https://greenshop.example/p1")
	strategy := new(MockStrategy)
	strategy.On("Fetch", mock.Anything, mock.Anything).Return(productPage(
		[2]string{"Producto Desconocido", "$100"},
		[2]string{"Papa Negra 2 kg", "$800"},
	), nil)

	cat := new(MockCatalog)
	expectBackend(cat)
	cat.On("Match", mock.Anything, mock.MatchedBy(func(l listing.Listing) bool {
		return l.Name == "Producto Desconocido"
	})).Return(int64(0), catalog.ErrNotFound).Once()
	cat.On("Match", mock.Anything, mock.MatchedBy(func(l listing.Listing) bool {
		return l.Name == "Papa Negra"
	})).Return(int64(7), nil).Once()
	cat.On("Submit", mock.Anything, mock.Anything).Return(nil).Once()

	p := New(src, strategy, cat, nil, nil, zap.NewNop())
	sum, err := p.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, sum.Skipped)
	require.Equal(t, 1, sum.Submitted)
	require.Equal(t, 1, sum.Matched)
	cat.AssertExpectations(t)
}
