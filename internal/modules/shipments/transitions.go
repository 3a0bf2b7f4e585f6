package shipments

import "e-courier/internal/models"

// Legal forward transitions per route shape. Same-city shipments skip the
// hub states entirely; cross-city shipments walk the full chain. Canceled
// has no inbound edge here: the enum value exists but no operation moves
// a shipment into it.
var sameCityNext = map[string]string{
	models.StatusPendingPickup: models.StatusPickedUp,
	models.StatusPickedUp:      models.StatusInTransit,
	models.StatusInTransit:     models.StatusDelivered,
}

var crossCityNext = map[string]string{
	models.StatusPendingPickup:    models.StatusPickedUp,
	models.StatusPickedUp:         models.StatusAtOriginHub,
	models.StatusAtOriginHub:      models.StatusInTransit,
	models.StatusInTransit:        models.StatusAtDestinationHub,
	models.StatusAtDestinationHub: models.StatusOutForDelivery,
	models.StatusOutForDelivery:   models.StatusDelivered,
}

var knownStatuses = map[string]struct{}{
	models.StatusPendingPickup:    {},
	models.StatusPickedUp:         {},
	models.StatusAtOriginHub:      {},
	models.StatusInTransit:        {},
	models.StatusAtDestinationHub: {},
	models.StatusOutForDelivery:   {},
	models.StatusDelivered:        {},
	models.StatusCanceled:         {},
}

// IsValidStatus reports whether the value is a declared shipment status.
func IsValidStatus(status string) bool {
	_, ok := knownStatuses[status]
	return ok
}

// CanTransition reports whether from -> to is a legal step for the given
// route shape.
func CanTransition(sameCity bool, from, to string) bool {
	table := crossCityNext
	if sameCity {
		table = sameCityNext
	}
	return table[from] == to
}
