package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Test fixtures
func createTestLines() []OrderLine {
	return []OrderLine{
		{SKU: "FD-TEE-BLK-L", ProductName: "Tee Black L", Quantity: 2, LocationCode: "A-01-03"},
		{SKU: "FD-TEE-WHT-M", ProductName: "Tee White M", Quantity: 1, LocationCode: "A-02-01"},
		{SKU: "FD-CAP-RED", ProductName: "Cap Red", Quantity: 3, LocationCode: "B-01-01"},
	}
}

func createTestAliases() AliasTable {
	return NewAliasTable([]BarcodeAlias{
		{ExternalBarcode: "0123456789012", SKU: "FD-TEE-BLK-L"},
		{ExternalBarcode: "5901234123457", SKU: "FD-CAP-RED"},
	})
}

func TestResolveBarcode(t *testing.T) {
	tests := []struct {
		name           string
		raw            string
		alreadyScanned map[int]bool
		wantStatus     ResolutionStatus
		wantIndex      int
		wantFuzzy      bool
	}{
		{
			name:       "Exact SKU match",
			raw:        "FD-TEE-WHT-M",
			wantStatus: ResolutionMatched,
			wantIndex:  1,
		},
		{
			name:       "Exact match is case-insensitive and trimmed",
			raw:        "  fd-tee-blk-l ",
			wantStatus: ResolutionMatched,
			wantIndex:  0,
		},
		{
			name:       "Exact match never falls through to fuzzy",
			raw:        "FD-CAP-RED",
			wantStatus: ResolutionMatched,
			wantIndex:  2,
			wantFuzzy:  false,
		},
		{
			name:       "Alias resolves to line",
			raw:        "0123456789012",
			wantStatus: ResolutionMatched,
			wantIndex:  0,
		},
		{
			name:       "Fuzzy substring match, first line order wins",
			raw:        "TEE",
			wantStatus: ResolutionMatched,
			wantIndex:  0,
			wantFuzzy:  true,
		},
		{
			name:       "Fuzzy needs at least three characters",
			raw:        "FD",
			wantStatus: ResolutionNotFound,
			wantIndex:  -1,
		},
		{
			name:           "Already satisfied line reports duplicate, not not-found",
			raw:            "FD-TEE-WHT-M",
			alreadyScanned: map[int]bool{1: true},
			wantStatus:     ResolutionAlreadyScanned,
			wantIndex:      1,
		},
		{
			name:       "Unknown barcode",
			raw:        "ZZZ-UNKNOWN-999",
			wantStatus: ResolutionNotFound,
			wantIndex:  -1,
		},
		{
			name:       "Empty scan",
			raw:        "   ",
			wantStatus: ResolutionNotFound,
			wantIndex:  -1,
		},
	}

	lines := createTestLines()
	aliases := createTestAliases()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scanned := tt.alreadyScanned
			if scanned == nil {
				scanned = map[int]bool{}
			}

			res := ResolveBarcode(tt.raw, lines, aliases, scanned)

			assert.Equal(t, tt.wantStatus, res.Status)
			assert.Equal(t, tt.wantIndex, res.LineIndex)
			assert.Equal(t, tt.wantFuzzy, res.Fuzzy)
		})
	}
}

func TestResolveBarcodeDuplicateSKUOnSecondLine(t *testing.T) {
	// The same SKU at two locations: once the first line is satisfied, the
	// scan must advance to the open second line instead of rejecting.
	lines := []OrderLine{
		{SKU: "FD-TEE-BLK-L", Quantity: 1, LocationCode: "A-01-01"},
		{SKU: "FD-TEE-BLK-L", Quantity: 1, LocationCode: "C-04-02"},
	}

	res := ResolveBarcode("FD-TEE-BLK-L", lines, AliasTable{}, map[int]bool{0: true})
	assert.Equal(t, ResolutionMatched, res.Status)
	assert.Equal(t, 1, res.LineIndex)

	res = ResolveBarcode("FD-TEE-BLK-L", lines, AliasTable{}, map[int]bool{0: true, 1: true})
	assert.Equal(t, ResolutionAlreadyScanned, res.Status)
}

func TestResolveBarcodeNotFoundCarriesRaw(t *testing.T) {
	res := ResolveBarcode("MYSTERY-CODE", createTestLines(), AliasTable{}, map[int]bool{})
	assert.Equal(t, ResolutionNotFound, res.Status)
	assert.Equal(t, "MYSTERY-CODE", res.Raw)
}
