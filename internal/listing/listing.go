// Package listing defines the core data model shared across the pipeline.
package listing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Unit is the closed set of measurement units a listing can carry.
type Unit string

// Unit values submitted to the backend.
const (
	UnitGram     Unit = "G"
	UnitKilogram Unit = "KG"
	UnitCount    Unit = "UNIT"
)

// Raw is a listing exactly as extracted from a page or file row. Raw listings
// are ephemeral: they exist between extraction and normalization and are
// discarded afterwards.
type Raw struct {
	Title     string
	Price     string
	Image     string
	SourceURL string
}

// Listing is the canonical unit of work downstream of normalization.
type Listing struct {
	Name        string
	Brand       string
	Description string
	Quantity    int
	Unit        Unit
	Price       decimal.Decimal
	ImageURL    string
	SupplierID  int64
}

// SearchName renders the descriptive name used for the first catalog search
// attempt. When the quantity/unit carry the parser defaults (no phrase was
// present in the title) the name alone is the best query.
func (l Listing) SearchName() string {
	if l.Unit == UnitCount && l.Quantity == 1 {
		return l.Name
	}
	return fmt.Sprintf("%s %d %s", l.Name, l.Quantity, unitWord(l.Unit))
}

func unitWord(u Unit) string {
	switch u {
	case UnitGram:
		return "gr"
	case UnitKilogram:
		return "kg"
	default:
		return "un"
	}
}

// Matched is a listing the backend confirmed a catalog entry for. Only
// matched listings are submitted and exported.
type Matched struct {
	Listing
	CatalogID int64
}

// SourceIdentity is the backend-resolved supplier record every submitted item
// is tagged with. It is fetched once per run using the configured credentials
// and is never read from local config.
type SourceIdentity struct {
	ID          int64
	DisplayName string
}

// IdentityKey is the tuple used for deduplication. It is derived, compared,
// and thrown away within a single run.
type IdentityKey struct {
	Name     string
	Unit     Unit
	Quantity int
}

// KeyOf derives the deduplication key for a listing. Names are compared
// case-insensitively with surrounding whitespace ignored.
func KeyOf(l Listing) IdentityKey {
	return IdentityKey{
		Name:     strings.ToLower(strings.TrimSpace(l.Name)),
		Unit:     l.Unit,
		Quantity: l.Quantity,
	}
}
