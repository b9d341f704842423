package status_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Additional-Code/fulfillment/internal/status"
)

func TestStatus_Valid(t *testing.T) {
	for _, s := range status.All {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, status.Status("RETURNED").Valid())
	assert.False(t, status.Status("").Valid())
}

func TestStatus_IsFulfilled(t *testing.T) {
	assert.True(t, status.Shipped.IsFulfilled())
	assert.True(t, status.Completed.IsFulfilled())

	for _, s := range []status.Status{status.Draft, status.Confirmed, status.Allocating, status.PartiallyShipped, status.Cancelled} {
		assert.False(t, s.IsFulfilled(), string(s))
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.True(t, status.Completed.IsTerminal())
	assert.True(t, status.Cancelled.IsTerminal())
	assert.False(t, status.Shipped.IsTerminal())
	assert.False(t, status.Draft.IsTerminal())
}

func TestAfterShipment(t *testing.T) {
	// A shipped order stays shipped; everything else moves to partially shipped.
	assert.Equal(t, status.Shipped, status.AfterShipment(status.Shipped))
	assert.Equal(t, status.PartiallyShipped, status.AfterShipment(status.Draft))
	assert.Equal(t, status.PartiallyShipped, status.AfterShipment(status.Confirmed))
	assert.Equal(t, status.PartiallyShipped, status.AfterShipment(status.PartiallyShipped))

	// The machine is permissive: even terminal states are moved. See the
	// open question recorded in DESIGN.md.
	assert.Equal(t, status.PartiallyShipped, status.AfterShipment(status.Completed))
}

func TestAfterReplace(t *testing.T) {
	assert.Equal(t, status.Shipped, status.AfterReplace(true))
	assert.Equal(t, status.Confirmed, status.AfterReplace(false))
}
