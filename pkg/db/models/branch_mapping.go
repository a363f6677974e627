package models

import (
	"time"

	"github.com/estoque-mci/estoque-api/pkg/enums"
)

// BranchMapping maps an NFe party CNPJ to the branch it belongs to. Written
// once by a manual assignment and reused for every later invoice bearing the
// same CNPJ.
type BranchMapping struct {
	CNPJ      string       `gorm:"column:cnpj;primaryKey"`
	Branch    enums.Branch `gorm:"column:branch;not null"`
	CreatedAt time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}
