package models

import (
	"time"

	"github.com/google/uuid"
)

// ImportProject groups purchase-in-transit items. Deleting a project cascades
// to its items; an item cannot outlive its project.
type ImportProject struct {
	ID          uuid.UUID    `gorm:"column:id;type:uuid;primaryKey"`
	Name        string       `gorm:"column:name;not null"`
	Supplier    string       `gorm:"column:supplier;not null;default:''"`
	Status      string       `gorm:"column:status;not null;default:'open'"`
	ArrivalDate *time.Time   `gorm:"column:arrival_date"`
	Notes       *string      `gorm:"column:notes"`
	Items       []ImportItem `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}

// ImportItem is one product line inside an import project.
type ImportItem struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProjectID   uuid.UUID `gorm:"column:project_id;type:uuid;not null;index"`
	ProductCode string    `gorm:"column:product_code;not null"`
	Description string    `gorm:"column:description;not null;default:''"`
	Quantity    int       `gorm:"column:quantity;not null;default:0"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
