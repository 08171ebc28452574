// Package normalize turns raw scraped text into typed listing fields.
//
// Supplier sites publish titles like "0102 Tomate Cherry 500 gr" and prices
// like "$1.234,50" (Latin American separators). Everything here is a pure
// function over strings: malformed input degrades to defaults instead of
// failing, so a partially broken page still yields usable data.
package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/restocompras/supplier-scraper/internal/listing"
)

var (
	// Leading order codes: at least three digits, optionally prefixed with a
	// short letter code, separated from the descriptive text by whitespace.
	leadingCode = regexp.MustCompile(`^[A-Za-z]{0,2}\d{3,}\s+`)

	// Trailing quantity/unit phrases: "500 gr", "2 kilos", "1 un.".
	qtyUnit = regexp.MustCompile(`(?i)\s*(\d+)\s*(gr|gramos?|kilos?|kg|un|u|lb)\.?\s*$`)

	// Trailing "por kilo" pricing notes carry no quantity of their own.
	perKilo = regexp.MustCompile(`(?i)\s*por\s*kilo\s*$`)

	currencyStrip = strings.NewReplacer("US$", "", "$", "", " ", "", " ", "")
)

// ParseTitle splits a raw product title into descriptive name, quantity, and
// standardized unit. Titles without a recognized quantity/unit phrase default
// to quantity 1 and the generic count unit.
func ParseTitle(title string) (string, int, listing.Unit) {
	name := strings.TrimSpace(title)
	name = strings.TrimSpace(leadingCode.ReplaceAllString(name, ""))

	quantity := 1
	unit := listing.UnitCount

	if m := qtyUnit.FindStringSubmatch(name); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			quantity = n
		}
		unit = StandardizeUnit(m[2])
		name = strings.TrimSpace(qtyUnit.ReplaceAllString(name, ""))
	}

	name = strings.TrimSpace(perKilo.ReplaceAllString(name, ""))
	return name, quantity, unit
}

// StandardizeUnit maps a raw unit token onto the closed unit set.
//
// Count-style tokens ("un", "u") map onto the gram unit. That mapping predates
// this implementation and the backend catalog depends on it, so it is kept
// as-is rather than corrected to UnitCount.
func StandardizeUnit(raw string) listing.Unit {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), ".", "") {
	case "gr", "gramo", "gramos", "un", "u", "lb":
		return listing.UnitGram
	case "kilo", "kilos", "kg":
		return listing.UnitKilogram
	default:
		return listing.UnitCount
	}
}

// ParsePrice parses a price string using the Latin American convention:
// "." is a thousands separator and "," the decimal separator. Currency
// symbols and whitespace are stripped first. Unparseable input yields zero,
// which the pipeline later drops via the positive-price invariant.
func ParsePrice(raw string) decimal.Decimal {
	cleaned := strings.TrimSpace(currencyStrip.Replace(raw))
	cleaned = strings.ReplaceAll(cleaned, ".", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")

	price, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return price
}

// Listing normalizes one raw listing into the canonical shape. The supplier
// identity is attached later, once the backend has resolved it.
func Listing(raw listing.Raw) listing.Listing {
	name, quantity, unit := ParseTitle(raw.Title)
	return listing.Listing{
		Name:     name,
		Quantity: quantity,
		Unit:     unit,
		Price:    ParsePrice(raw.Price),
		ImageURL: raw.Image,
	}
}
