package models

import (
	"time"

	"github.com/estoque-mci/estoque-api/pkg/enums"
	"github.com/google/uuid"
)

// Reservation locks a quantity out of one branch's available stock. Name and
// brand are denormalized at creation time so the row stays displayable if the
// product is later renamed.
type Reservation struct {
	ID             uuid.UUID    `gorm:"column:id;type:uuid;primaryKey"`
	ProductID      string       `gorm:"column:product_id;not null;index"`
	ProductName    string       `gorm:"column:product_name;not null"`
	ProductBrand   string       `gorm:"column:product_brand;not null;default:''"`
	Quantity       int          `gorm:"column:quantity;not null"`
	Branch         enums.Branch `gorm:"column:branch;not null"`
	ReservedBy     string       `gorm:"column:reserved_by;not null"`
	ReservedByName string       `gorm:"column:reserved_by_name;not null;default:''"`
	ReservedAt     time.Time    `gorm:"column:reserved_at;not null"`
	ExpiresAt      time.Time    `gorm:"column:expires_at;not null;index"`
}

// Active reports whether the reservation still blocks stock at the given time.
func (r *Reservation) Active(now time.Time) bool {
	return now.Before(r.ExpiresAt)
}
