package domain

import (
	"sort"
	"strings"
)

// OrderLine is one unit of work inside a pick session. Lines are identified by
// their position in the order's line list, not by SKU: the same SKU may appear
// on two lines with different locations.
type OrderLine struct {
	SKU          string `bson:"sku" json:"sku"`
	ProductName  string `bson:"productName" json:"productName"`
	Variant      string `bson:"variant,omitempty" json:"variant,omitempty"`
	Quantity     int    `bson:"quantity" json:"quantity"`
	LocationCode string `bson:"locationCode,omitempty" json:"locationCode,omitempty"`
}

// BarcodeAlias maps a manufacturer-printed barcode to a canonical SKU.
// Many aliases may point at the same SKU.
type BarcodeAlias struct {
	ExternalBarcode string `bson:"externalBarcode" json:"externalBarcode"`
	SKU             string `bson:"sku" json:"sku"`
}

// AliasTable is a normalized lookup of external barcode -> canonical SKU.
// Keys are stored trimmed and lower-cased so resolution is case-insensitive.
type AliasTable map[string]string

// NewAliasTable builds an AliasTable from alias records.
func NewAliasTable(aliases []BarcodeAlias) AliasTable {
	table := make(AliasTable, len(aliases))
	for _, a := range aliases {
		key := normalizeBarcode(a.ExternalBarcode)
		if key == "" {
			continue
		}
		table[key] = a.SKU
	}
	return table
}

// Lookup resolves an external barcode to its canonical SKU.
func (t AliasTable) Lookup(raw string) (string, bool) {
	sku, ok := t[normalizeBarcode(raw)]
	return sku, ok
}

// SortLinesByLocation orders lines lexicographically by location code, keeping
// the relative order of lines that share a location (and of lines without one,
// which sort first). This is the whole pick-path story: a grouping, not a route
// optimizer.
func SortLinesByLocation(lines []OrderLine) []OrderLine {
	sorted := make([]OrderLine, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].LocationCode < sorted[j].LocationCode
	})
	return sorted
}

func normalizeBarcode(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
