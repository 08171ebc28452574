package normalize

import "github.com/restocompras/supplier-scraper/internal/listing"

// Dedupe collapses repeated listings, keeping the first occurrence per
// identity key and preserving input order. The removed count is returned so
// the pipeline can log it. There is no cross-run state: two separate runs do
// not dedupe against each other.
func Dedupe(in []listing.Listing) ([]listing.Listing, int) {
	seen := make(map[listing.IdentityKey]struct{}, len(in))
	out := make([]listing.Listing, 0, len(in))
	for _, l := range in {
		key := listing.KeyOf(l)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, l)
	}
	return out, len(in) - len(out)
}
