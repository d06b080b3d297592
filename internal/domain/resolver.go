package domain

import "strings"

// fuzzyMinLength is the minimum scanned length before the substring fallback
// is allowed to run. Shorter fragments match too much to be useful.
const fuzzyMinLength = 3

// ResolutionStatus classifies the outcome of resolving a scanned string.
type ResolutionStatus string

const (
	// ResolutionMatched means the scan resolved to a fresh, unmarked line.
	ResolutionMatched ResolutionStatus = "matched"
	// ResolutionAlreadyScanned means the scan resolved to a line that was
	// already satisfied. Distinct from not-found so callers can show a
	// different message.
	ResolutionAlreadyScanned ResolutionStatus = "already_scanned"
	// ResolutionNotFound means no line matched on any tier.
	ResolutionNotFound ResolutionStatus = "not_found"
)

// Resolution is the result of mapping a raw scan to an order line.
type Resolution struct {
	Status    ResolutionStatus
	LineIndex int
	// Fuzzy marks a tier-3 substring match. Lower confidence: the scan and
	// the SKU merely contain one another, they are not equal.
	Fuzzy bool
	// Raw is carried back for display on a not-found outcome.
	Raw string
}

// ResolveBarcode maps a raw scanned string to a line index against the given
// lines and alias table. Matching is case-insensitive on trimmed input, in
// priority order:
//
//  1. exact SKU match,
//  2. alias lookup, then exact match on the aliased SKU,
//  3. substring match either direction, minimum 3 characters, for truncated
//     labels. First line in list order wins.
//
// A match whose line is already in alreadyScanned yields AlreadyScanned, not
// NotFound.
func ResolveBarcode(raw string, lines []OrderLine, aliases AliasTable, alreadyScanned map[int]bool) Resolution {
	needle := normalizeBarcode(raw)
	if needle == "" {
		return Resolution{Status: ResolutionNotFound, LineIndex: -1, Raw: raw}
	}

	if res, ok := matchExact(needle, lines, alreadyScanned); ok {
		res.Raw = raw
		return res
	}

	if sku, ok := aliases.Lookup(needle); ok {
		if res, ok := matchExact(normalizeBarcode(sku), lines, alreadyScanned); ok {
			res.Raw = raw
			return res
		}
	}

	if len(needle) >= fuzzyMinLength {
		if res, ok := matchSubstring(needle, lines, alreadyScanned); ok {
			res.Raw = raw
			return res
		}
	}

	return Resolution{Status: ResolutionNotFound, LineIndex: -1, Raw: raw}
}

func matchExact(needle string, lines []OrderLine, alreadyScanned map[int]bool) (Resolution, bool) {
	for i, line := range lines {
		if normalizeBarcode(line.SKU) != needle {
			continue
		}
		if alreadyScanned[i] {
			// Keep looking: a later line may carry the same SKU at a
			// different location and still be open.
			continue
		}
		return Resolution{Status: ResolutionMatched, LineIndex: i}, true
	}
	for i, line := range lines {
		if normalizeBarcode(line.SKU) == needle && alreadyScanned[i] {
			return Resolution{Status: ResolutionAlreadyScanned, LineIndex: i}, true
		}
	}
	return Resolution{}, false
}

func matchSubstring(needle string, lines []OrderLine, alreadyScanned map[int]bool) (Resolution, bool) {
	match := -1
	for i, line := range lines {
		sku := normalizeBarcode(line.SKU)
		if strings.Contains(sku, needle) || strings.Contains(needle, sku) {
			match = i
			break
		}
	}
	if match < 0 {
		return Resolution{}, false
	}
	if alreadyScanned[match] {
		return Resolution{Status: ResolutionAlreadyScanned, LineIndex: match, Fuzzy: true}, true
	}
	return Resolution{Status: ResolutionMatched, LineIndex: match, Fuzzy: true}, true
}
