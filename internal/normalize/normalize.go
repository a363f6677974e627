// Package normalize reconciles raw product rows coming from the store,
// spreadsheet snapshots, or NFe line items into one canonical record per
// logical product id.
package normalize

import "strings"

// legacySuffix is the trailing artifact appended to numeric-looking codes by
// the upstream spreadsheet export ("1234" serialized as "1234.0").
const legacySuffix = ".0"

// ProductRow is the loosely-typed shape accepted by the merge. Callers coerce
// missing numerics to zero before handing rows in; Merge treats the zero value
// as absent.
type ProductRow struct {
	ID                  string
	Name                string
	Brand               string
	StockCE             int
	StockSC             int
	StockSP             int
	Total               int
	Reserved            int
	ImportQuantity      *int
	ExpectedRestockDate *string
	Observations        *string
	ImageURL            *string
	BrandLogo           *string
}

// CanonicalID strips the legacy ".0" suffix so two spellings of the same code
// compare equal.
func CanonicalID(id string) string {
	trimmed := strings.TrimSpace(id)
	if strings.HasSuffix(trimmed, legacySuffix) {
		return trimmed[:len(trimmed)-len(legacySuffix)]
	}
	return trimmed
}

// Merge collapses duplicate spellings of the same product into one record per
// canonical id. Numeric stock fields SUM on collision (both spellings were
// counted upstream); first-seen metadata wins; the total is always recomputed
// from the three branch values, discarding whatever total the input carried.
// Merge is pure, idempotent, and order-independent for the numeric fields.
func Merge(rows []ProductRow) []ProductRow {
	byID := make(map[string]int, len(rows))
	out := make([]ProductRow, 0, len(rows))

	for _, row := range rows {
		id := CanonicalID(row.ID)
		if id == "" {
			continue
		}

		if idx, ok := byID[id]; ok {
			merged := &out[idx]
			merged.StockCE += row.StockCE
			merged.StockSC += row.StockSC
			merged.StockSP += row.StockSP
			merged.Reserved += row.Reserved
			merged.Total = merged.StockCE + merged.StockSC + merged.StockSP
			continue
		}

		row.ID = id
		row.Total = row.StockCE + row.StockSC + row.StockSP
		byID[id] = len(out)
		out = append(out, row)
	}

	return out
}

// DedupeLastWins collapses duplicate canonical ids keeping the LAST occurrence
// wholesale. This is the upload-snapshot semantics: the later row is the
// fresher full record, so nothing is summed.
func DedupeLastWins(rows []ProductRow) []ProductRow {
	byID := make(map[string]int, len(rows))
	out := make([]ProductRow, 0, len(rows))

	for _, row := range rows {
		id := CanonicalID(row.ID)
		if id == "" {
			continue
		}
		row.ID = id
		row.Total = row.StockCE + row.StockSC + row.StockSP

		if idx, ok := byID[id]; ok {
			out[idx] = row
			continue
		}
		byID[id] = len(out)
		out = append(out, row)
	}

	return out
}
