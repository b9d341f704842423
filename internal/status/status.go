// Package status models the order fulfillment state machine.
//
// The machine is deliberately permissive: the ledger only ever pushes orders
// toward PARTIALLY_SHIPPED (incremental shipments) or SHIPPED/CONFIRMED
// (replace workflow), and nothing here forbids unusual transitions such as
// COMPLETED back to PARTIALLY_SHIPPED. External order management owns the
// terminal states.
package status

// Status is the fulfillment state of an order.
type Status string

const (
	Draft            Status = "DRAFT"
	Confirmed        Status = "CONFIRMED"
	Allocating       Status = "ALLOCATING"
	PartiallyShipped Status = "PARTIALLY_SHIPPED"
	Shipped          Status = "SHIPPED"
	Completed        Status = "COMPLETED"
	Cancelled        Status = "CANCELLED"
)

// All lists every known status in lifecycle order.
var All = []Status{Draft, Confirmed, Allocating, PartiallyShipped, Shipped, Completed, Cancelled}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, known := range All {
		if s == known {
			return true
		}
	}
	return false
}

// IsFulfilled reports whether the order counts as fulfilled for listing
// purposes. SHIPPED and COMPLETED orders land on the fulfilled list.
func (s Status) IsFulfilled() bool {
	return s == Shipped || s == Completed
}

// IsTerminal reports whether the status can only be left by external order
// management, never by the ledger.
func (s Status) IsTerminal() bool {
	return s == Completed || s == Cancelled
}

// AfterShipment is the status an order takes after an accepted incremental
// shipment. Orders already SHIPPED stay SHIPPED.
func AfterShipment(current Status) Status {
	if current == Shipped {
		return Shipped
	}
	return PartiallyShipped
}

// AfterReplace is the status set by the replace workflow: SHIPPED when the
// caller marks the order fulfilled, CONFIRMED otherwise.
func AfterReplace(fulfilled bool) Status {
	if fulfilled {
		return Shipped
	}
	return Confirmed
}
