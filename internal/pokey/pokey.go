// Package pokey parses the "<po_number>|<sku>" composite keys legacy callers
// use to address a single line item without knowing its generated id.
package pokey

import "strings"

// Key is a parsed PO/SKU composite key.
type Key struct {
	PoNumber string
	SKU      string
}

// Parse splits a composite key on '|', keeping the first two segments. A key
// without a separator is treated as a bare PO number with an empty sku,
// matching the legacy tooling.
func Parse(raw string) Key {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Key{}
	}
	parts := strings.Split(raw, "|")
	if len(parts) == 1 {
		return Key{PoNumber: raw}
	}
	return Key{PoNumber: parts[0], SKU: parts[1]}
}

// String reassembles the composite key.
func (k Key) String() string {
	if k.SKU == "" {
		return k.PoNumber
	}
	return k.PoNumber + "|" + k.SKU
}
