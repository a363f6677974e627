package enums

import "fmt"

// MovementAction classifies rows in the stock_movements audit table.
type MovementAction string

const (
	MovementActionStockAdjusted        MovementAction = "stock_adjusted"
	MovementActionProductRegistered    MovementAction = "product_registered"
	MovementActionReservationCreated   MovementAction = "reservation_created"
	MovementActionReservationCancelled MovementAction = "reservation_cancelled"
	MovementActionReservationExpired   MovementAction = "reservation_expired"
	MovementActionSnapshotApplied      MovementAction = "snapshot_applied"
	MovementActionNFeProcessed         MovementAction = "nfe_processed"
)

var validMovementActions = []MovementAction{
	MovementActionStockAdjusted,
	MovementActionProductRegistered,
	MovementActionReservationCreated,
	MovementActionReservationCancelled,
	MovementActionReservationExpired,
	MovementActionSnapshotApplied,
	MovementActionNFeProcessed,
}

// IsValid reports whether the value matches the canonical movement action enum.
func (a MovementAction) IsValid() bool {
	for _, candidate := range validMovementActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseMovementAction converts raw input into a MovementAction.
func ParseMovementAction(value string) (MovementAction, error) {
	for _, candidate := range validMovementActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement action %q", value)
}

// MovementEntity names the entity a movement row refers to.
type MovementEntity string

const (
	MovementEntityProduct     MovementEntity = "product"
	MovementEntityReservation MovementEntity = "reservation"
)
