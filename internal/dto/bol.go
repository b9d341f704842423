package dto

// The BOL entry surface keeps the camelCase field names the legacy data-entry
// client sends and expects.

// BolListItem is one selectable order in the entry form dropdowns.
type BolListItem struct {
	Key     string `json:"key"`
	Display string `json:"display"`
}

// BolInitialData splits the known orders into the two dropdown lists.
type BolInitialData struct {
	PendingList   []BolListItem `json:"pendingList"`
	FulfilledList []BolListItem `json:"fulfilledList"`
}

// BolEntry is one BOL row as the entry form renders it. ShippingFee and
// Signed are not tracked in the ledger and are always zero values.
type BolEntry struct {
	BolNumber   string  `json:"bolNumber"`
	ShippedQty  int     `json:"shippedQty"`
	ShippingFee float64 `json:"shippingFee"`
	Signed      bool    `json:"signed"`
}

// BolExistingData is the saved state of one order's BOL entries. For an
// unknown order all fields stay at their zero values and Bols is an empty
// slice, never nil.
type BolExistingData struct {
	Bols        []BolEntry `json:"bols"`
	ActShipDate *string    `json:"actShipDate"`
	IsFulfilled bool       `json:"isFulfilled"`
}

// BolSaveEntry is one submitted BOL row. Rows with an empty bolNumber are
// skipped on save.
type BolSaveEntry struct {
	BolNumber  string `json:"bolNumber"`
	ShippedQty int    `json:"shippedQty"`
}

// BolSaveRequest is the full submitted entry form for one order.
type BolSaveRequest struct {
	PoSkuKey    string         `json:"poSkuKey"`
	ActShipDate string         `json:"actShipDate"`
	IsFulfilled bool           `json:"isFulfilled"`
	Bols        []BolSaveEntry `json:"bols"`
}
