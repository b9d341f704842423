package pokey_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Additional-Code/fulfillment/internal/pokey"
)

func TestParse(t *testing.T) {
	tests := []struct {
		raw    string
		wantPo string
		wantSku string
	}{
		{"PO-1001|SKU-A", "PO-1001", "SKU-A"},
		{"PO-1001", "PO-1001", ""},
		{"PO-1001|", "PO-1001", ""},
		{"PO-1001|SKU|extra", "PO-1001", "SKU"},
		{"  PO-1001|SKU-A  ", "PO-1001", "SKU-A"},
		{"", "", ""},
	}

	for _, tt := range tests {
		key := pokey.Parse(tt.raw)
		assert.Equal(t, tt.wantPo, key.PoNumber, tt.raw)
		assert.Equal(t, tt.wantSku, key.SKU, tt.raw)
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "PO-1|A", pokey.Key{PoNumber: "PO-1", SKU: "A"}.String())
	assert.Equal(t, "PO-1", pokey.Key{PoNumber: "PO-1"}.String())
}
