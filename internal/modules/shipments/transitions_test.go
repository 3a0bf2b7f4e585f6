package shipments

import (
	"testing"

	"e-courier/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionSameCity(t *testing.T) {
	assert.True(t, CanTransition(true, models.StatusPendingPickup, models.StatusPickedUp))
	assert.True(t, CanTransition(true, models.StatusPickedUp, models.StatusInTransit))
	assert.True(t, CanTransition(true, models.StatusInTransit, models.StatusDelivered))

	// Same-city routes never touch the hub states.
	assert.False(t, CanTransition(true, models.StatusPickedUp, models.StatusAtOriginHub))
	assert.False(t, CanTransition(true, models.StatusInTransit, models.StatusAtDestinationHub))
	assert.False(t, CanTransition(true, models.StatusInTransit, models.StatusOutForDelivery))
}

func TestCanTransitionCrossCity(t *testing.T) {
	steps := []string{
		models.StatusPendingPickup,
		models.StatusPickedUp,
		models.StatusAtOriginHub,
		models.StatusInTransit,
		models.StatusAtDestinationHub,
		models.StatusOutForDelivery,
		models.StatusDelivered,
	}
	for i := 0; i < len(steps)-1; i++ {
		assert.True(t, CanTransition(false, steps[i], steps[i+1]),
			"expected %s -> %s to be valid", steps[i], steps[i+1])
	}

	// No skipping and no going back.
	assert.False(t, CanTransition(false, models.StatusPickedUp, models.StatusInTransit))
	assert.False(t, CanTransition(false, models.StatusPendingPickup, models.StatusDelivered))
	assert.False(t, CanTransition(false, models.StatusInTransit, models.StatusAtOriginHub))
	assert.False(t, CanTransition(false, models.StatusDelivered, models.StatusOutForDelivery))
}

func TestCanTransitionTerminalStates(t *testing.T) {
	for _, sameCity := range []bool{true, false} {
		assert.False(t, CanTransition(sameCity, models.StatusDelivered, models.StatusInTransit))
		assert.False(t, CanTransition(sameCity, models.StatusCanceled, models.StatusPendingPickup))
		// Nothing currently moves a shipment into Canceled either.
		assert.False(t, CanTransition(sameCity, models.StatusPendingPickup, models.StatusCanceled))
	}
}

func TestIsValidStatus(t *testing.T) {
	assert.True(t, IsValidStatus(models.StatusPendingPickup))
	assert.True(t, IsValidStatus(models.StatusCanceled))
	assert.False(t, IsValidStatus("Lost"))
	assert.False(t, IsValidStatus(""))
}
