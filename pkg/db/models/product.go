package models

import (
	"time"

	"github.com/estoque-mci/estoque-api/pkg/enums"
)

// Product is the canonical stock record, keyed by the external product code.
// The branch columns hold AVAILABLE stock (active reservations already netted
// out by the upload/adjust paths); Total is always the sum of the three.
type Product struct {
	ID                  string  `gorm:"column:id;primaryKey"`
	Name                string  `gorm:"column:name;not null"`
	Brand               string  `gorm:"column:brand;not null;default:''"`
	StockCE             int     `gorm:"column:stock_ce;not null;default:0"`
	StockSC             int     `gorm:"column:stock_sc;not null;default:0"`
	StockSP             int     `gorm:"column:stock_sp;not null;default:0"`
	Total               int     `gorm:"column:total;not null;default:0"`
	Reserved            int     `gorm:"column:reserved;not null;default:0"`
	ImportQuantity      *int    `gorm:"column:import_quantity"`
	ExpectedRestockDate *string `gorm:"column:expected_restock_date"`
	Observations        *string `gorm:"column:observations"`
	ImageURL            *string `gorm:"column:image_url"`
	BrandLogo           *string `gorm:"column:brand_logo"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// StockFor returns the available stock on the given branch.
func (p *Product) StockFor(branch enums.Branch) int {
	switch branch {
	case enums.BranchCE:
		return p.StockCE
	case enums.BranchSC:
		return p.StockSC
	case enums.BranchSP:
		return p.StockSP
	}
	return 0
}

// SetStockFor overwrites the available stock on the given branch.
func (p *Product) SetStockFor(branch enums.Branch, value int) {
	switch branch {
	case enums.BranchCE:
		p.StockCE = value
	case enums.BranchSC:
		p.StockSC = value
	case enums.BranchSP:
		p.StockSP = value
	}
}

// RecomputeTotal restores the total = sum-of-branches invariant.
func (p *Product) RecomputeTotal() {
	p.Total = p.StockCE + p.StockSC + p.StockSP
}
