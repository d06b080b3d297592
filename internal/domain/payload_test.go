package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseComposite(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want CompositePayload
	}{
		{
			name: "Plain barcode without pipe passes through",
			raw:  "FD-TEE-BLK-L",
			want: CompositePayload{SKU: "FD-TEE-BLK-L"},
		},
		{
			name: "Full composite payload",
			raw:  "FD-TEE-BLK-L|A-01-03|Black / Large",
			want: CompositePayload{SKU: "FD-TEE-BLK-L", Location: "A-01-03", Variant: "Black / Large"},
		},
		{
			name: "Malformed location is dropped, variant kept",
			raw:  "FD-TEE-BLK-L|ZZZZZ|Black",
			want: CompositePayload{SKU: "FD-TEE-BLK-L", Variant: "Black"},
		},
		{
			name: "Trailing variant omitted",
			raw:  "FD-TEE-BLK-L|A-01-03",
			want: CompositePayload{SKU: "FD-TEE-BLK-L", Location: "A-01-03"},
		},
		{
			name: "Lowercase location letter is not a slot label",
			raw:  "FD-TEE-BLK-L|a-01-03|Black",
			want: CompositePayload{SKU: "FD-TEE-BLK-L", Variant: "Black"},
		},
		{
			name: "Sku only with trailing pipe",
			raw:  "FD-CAP-RED|",
			want: CompositePayload{SKU: "FD-CAP-RED"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseComposite(tt.raw))
		})
	}
}

func TestIsValidLocationCode(t *testing.T) {
	assert.True(t, IsValidLocationCode("A-01-03"))
	assert.True(t, IsValidLocationCode("Z-99-00"))
	assert.False(t, IsValidLocationCode("AA-01-03"))
	assert.False(t, IsValidLocationCode("A-1-03"))
	assert.False(t, IsValidLocationCode("A-01-030"))
	assert.False(t, IsValidLocationCode(""))
}
