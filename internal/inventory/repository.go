package inventory

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/estoque-mci/estoque-api/internal/normalize"
	"github.com/estoque-mci/estoque-api/pkg/db/models"
)

// Repository persists product stock records.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads the product accepting either spelling of a legacy code:
// looking up "1234" also matches a row stored as "1234.0" and vice versa.
func (r *Repository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	canonical := normalize.CanonicalID(id)
	if canonical == "" {
		return nil, gorm.ErrRecordNotFound
	}

	var product models.Product
	err := r.db.WithContext(ctx).
		Where("id IN ?", []string{canonical, canonical + ".0"}).
		Order("id asc").
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Create inserts the product.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// Save overwrites every column of the product row.
func (r *Repository) Save(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// UpdateStock overwrites only the stock and total columns, leaving enrichment
// fields untouched.
func (r *Repository) UpdateStock(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]any{
			"stock_ce": product.StockCE,
			"stock_sc": product.StockSC,
			"stock_sp": product.StockSP,
			"total":    product.Total,
			"reserved": product.Reserved,
		}).Error
}

// UpsertBatch inserts or fully overwrites products keyed by id in one
// statement. Used by the snapshot upload path.
func (r *Repository) UpsertBatch(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "brand",
			"stock_ce", "stock_sc", "stock_sp", "total", "reserved",
			"import_quantity", "expected_restock_date", "observations",
			"image_url", "brand_logo", "updated_at",
		}),
	}).Create(&products).Error
}

// Delete removes the product row. Missing rows are not an error.
func (r *Repository) Delete(ctx context.Context, id string) error {
	canonical := normalize.CanonicalID(id)
	return r.db.WithContext(ctx).
		Where("id IN ?", []string{canonical, canonical + ".0"}).
		Delete(&models.Product{}).Error
}

// List returns every product ordered by id.
func (r *Repository) List(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).Order("id asc").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// Search filters by id, name, or brand, case-insensitively.
func (r *Repository) Search(ctx context.Context, query string) ([]models.Product, error) {
	term := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("LOWER(id) LIKE ? OR LOWER(name) LIKE ? OR LOWER(brand) LIKE ?", term, term, term).
		Order("id asc").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}
