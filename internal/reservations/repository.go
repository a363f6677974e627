package reservations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/estoque-mci/estoque-api/internal/normalize"
	"github.com/estoque-mci/estoque-api/pkg/db/models"
	"github.com/estoque-mci/estoque-api/pkg/enums"
)

// Repository persists reservation rows.
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

// Create inserts the reservation row.
func (r *Repository) Create(ctx context.Context, reservation *models.Reservation) error {
	return r.db.WithContext(ctx).Create(reservation).Error
}

// FindByID loads one reservation.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := r.db.WithContext(ctx).First(&reservation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &reservation, nil
}

// Delete removes the reservation row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Reservation{}, "id = ?", id).Error
}

// ListActive returns reservations that still block stock at the given time.
func (r *Repository) ListActive(ctx context.Context, now time.Time) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := r.db.WithContext(ctx).
		Where("expires_at > ?", now).
		Order("reserved_at desc").
		Find(&reservations).Error
	if err != nil {
		return nil, err
	}
	return reservations, nil
}

// ListExpired returns reservations past their expiry that were never cleaned.
func (r *Repository) ListExpired(ctx context.Context, now time.Time) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := r.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Order("expires_at asc").
		Find(&reservations).Error
	if err != nil {
		return nil, err
	}
	return reservations, nil
}

// BranchTotals aggregates active reserved quantity per canonical product id
// and branch. The upload reconciler nets these out of incoming physical stock.
type BranchTotals map[string]map[enums.Branch]int

// AggregateActive sums active reservation quantities grouped by product and
// branch, keyed by canonical product id.
func (r *Repository) AggregateActive(ctx context.Context, now time.Time) (BranchTotals, error) {
	type row struct {
		ProductID string
		Branch    enums.Branch
		Quantity  int
	}

	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Select("product_id, branch, SUM(quantity) AS quantity").
		Where("expires_at > ?", now).
		Group("product_id").
		Group("branch").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	totals := make(BranchTotals, len(rows))
	for _, r := range rows {
		id := normalize.CanonicalID(r.ProductID)
		if totals[id] == nil {
			totals[id] = make(map[enums.Branch]int, 3)
		}
		totals[id][r.Branch] += r.Quantity
	}
	return totals, nil
}
