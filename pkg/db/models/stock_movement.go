package models

import (
	"time"

	"github.com/estoque-mci/estoque-api/pkg/enums"
	"github.com/google/uuid"
)

// StockMovement is an audit row describing one stock-affecting action.
// Writes are fire-and-forget; a failed insert never fails the parent mutation.
type StockMovement struct {
	ID         uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	ActionType enums.MovementAction `gorm:"column:action_type;not null"`
	EntityType enums.MovementEntity `gorm:"column:entity_type;not null"`
	EntityID   string               `gorm:"column:entity_id;not null;index"`
	Details    string               `gorm:"column:details;not null;default:''"`
	CreatedAt  time.Time            `gorm:"column:created_at;autoCreateTime"`
}
