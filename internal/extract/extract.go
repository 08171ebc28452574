// Package extract turns acquired content into raw listings. Web sources use
// a named CSS selector map; price-list files use column positions or a
// line pattern. Both paths terminate in the same listing.Raw shape.
package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/restocompras/supplier-scraper/internal/listing"
	"github.com/restocompras/supplier-scraper/internal/source"
)

// Selector names looked up in a source's selector map.
const (
	SelProductList = "product_list"
	SelTitle       = "title"
	SelPrice       = "price"
	SelImage       = "image"
	SelOutOfStock  = "out_of_stock"
)

// FromHTML extracts raw listings from markup using the source's selector
// map. Items matching the out-of-stock selector and items without a title
// are skipped; price validation happens later in normalization.
func FromHTML(markup []byte, selectors map[string]string, pageURL string) ([]listing.Raw, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}

	listSel := selectors[SelProductList]
	if listSel == "" {
		return nil, fmt.Errorf("selector map is missing %q", SelProductList)
	}

	var out []listing.Raw
	doc.Find(listSel).Each(func(_ int, item *goquery.Selection) {
		if oos := selectors[SelOutOfStock]; oos != "" && item.Find(oos).Length() > 0 {
			return
		}

		title := strings.TrimSpace(item.Find(selectors[SelTitle]).First().Text())
		if title == "" {
			return
		}

		price := strings.TrimSpace(item.Find(selectors[SelPrice]).First().Text())

		var image string
		if imgSel := selectors[SelImage]; imgSel != "" {
			if src, ok := item.Find(imgSel).First().Attr("src"); ok {
				image = absoluteURL(pageURL, src)
			}
		}

		out = append(out, listing.Raw{
			Title:     title,
			Price:     price,
			Image:     image,
			SourceURL: pageURL,
		})
	})
	return out, nil
}

// FromRows extracts raw listings from tabular rows using column positions
// (1-based, matching how spreadsheets number their columns).
func FromRows(rows [][]string, cols source.Columns, src string) []listing.Raw {
	var out []listing.Raw
	for i, row := range rows {
		if i < cols.SkipRows {
			continue
		}
		title := cell(row, cols.Name)
		if title == "" {
			continue
		}
		out = append(out, listing.Raw{
			Title:     title,
			Price:     cell(row, cols.Price),
			Image:     cell(row, cols.Image),
			SourceURL: src,
		})
	}
	return out
}

// lineItem matches "Some Product Name  $1.234,50" style price-list lines.
var lineItem = regexp.MustCompile(`^(.+?)\s+\$?\s*([\d.,]+)\s*$`)

// FromLines extracts raw listings from single-cell rows (PDF text lines)
// using the trailing-price line pattern. Lines that do not match are not
// product rows (headers, section titles) and are skipped.
func FromLines(rows [][]string, src string) []listing.Raw {
	var out []listing.Raw
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		m := lineItem.FindStringSubmatch(strings.TrimSpace(row[0]))
		if m == nil {
			continue
		}
		out = append(out, listing.Raw{
			Title:     strings.TrimSpace(m[1]),
			Price:     m[2],
			SourceURL: src,
		})
	}
	return out
}

func cell(row []string, col int) string {
	if col < 1 || col > len(row) {
		return ""
	}
	return strings.TrimSpace(row[col-1])
}

func absoluteURL(base, ref string) string {
	refURL, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if refURL.IsAbs() {
		return refURL.String()
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}
