package cache

// Cache key layout shared by the services that read and the services that
// invalidate. Listing keys live under the "bol:" prefix so one pattern
// invalidation covers every aggregate view of shipment state.

const (
	// KeyBolInitial holds the pending/fulfilled entry-form lists.
	KeyBolInitial = "bol:initial"

	// PatternBol matches every BOL aggregate view.
	PatternBol = "bol:*"
)

// KeyBolExisting addresses the saved entry-form state of one PO/SKU key.
func KeyBolExisting(poSkuKey string) string {
	return "bol:existing:" + poSkuKey
}

// KeyOrderSummary addresses the per-sku summary view of one order.
func KeyOrderSummary(orderNumber string) string {
	return "orders:summary:" + orderNumber
}
