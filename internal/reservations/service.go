// Package reservations locks quantities out of a branch's available stock and
// releases them on cancellation or expiry.
package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/estoque-mci/estoque-api/internal/audit"
	"github.com/estoque-mci/estoque-api/internal/inventory"
	"github.com/estoque-mci/estoque-api/pkg/db"
	"github.com/estoque-mci/estoque-api/pkg/db/models"
	"github.com/estoque-mci/estoque-api/pkg/enums"
	pkgerrors "github.com/estoque-mci/estoque-api/pkg/errors"
	"github.com/estoque-mci/estoque-api/pkg/logger"
	"github.com/estoque-mci/estoque-api/pkg/metrics"
)

// errOrphanAfterRestore marks the state where stock was put back but the
// reservation row could not be removed. The row remains as evidence.
var errOrphanAfterRestore = errors.New("stock restored but reservation row not removed")

// Service exposes the reservation lifecycle.
type Service interface {
	Reserve(ctx context.Context, input ReserveInput) (*models.Reservation, error)
	Cancel(ctx context.Context, id uuid.UUID) error
	ListActive(ctx context.Context) ([]models.Reservation, error)
	CleanupExpired(ctx context.Context) (int, error)
}

// ReserveInput holds the validated payload to create a reservation.
type ReserveInput struct {
	ProductID      string
	Quantity       int
	Branch         enums.Branch
	ReservedBy     string
	ReservedByName string
}

type service struct {
	repo     *Repository
	products *inventory.Repository
	dbClient *db.Client
	recorder audit.Recorder
	metrics  *metrics.StockMetrics
	logg     *logger.Logger
	ttl      time.Duration
	now      func() time.Time
}

// NewService constructs the reservation service. The TTL bounds every new
// reservation's expiry.
func NewService(repo *Repository, products *inventory.Repository, dbClient *db.Client, recorder audit.Recorder, stockMetrics *metrics.StockMetrics, logg *logger.Logger, ttl time.Duration) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reservation repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("reservation ttl must be positive")
	}
	return &service{
		repo:     repo,
		products: products,
		dbClient: dbClient,
		recorder: recorder,
		metrics:  stockMetrics,
		logg:     logg,
		ttl:      ttl,
		now:      time.Now,
	}, nil
}

// Reserve inserts the reservation and decrements the branch stock in one
// transaction. The decrement is conditional on sufficient stock, so two
// concurrent reservations can never drive a branch negative.
func (s *service) Reserve(ctx context.Context, input ReserveInput) (*models.Reservation, error) {
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantidade deve ser positiva")
	}
	if !input.Branch.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "filial inválida")
	}
	if input.ReservedBy == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "responsável obrigatório")
	}

	now := s.now()
	var reservation *models.Reservation

	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txProducts := s.products.WithTx(tx)

		product, err := txProducts.FindByID(ctx, input.ProductID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "produto não encontrado")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
		}

		column := stockColumn(input.Branch)
		res := tx.WithContext(ctx).Model(&models.Product{}).
			Where("id = ? AND "+column+" >= ?", product.ID, input.Quantity).
			Updates(map[string]any{
				column:     gorm.Expr(column+" - ?", input.Quantity),
				"reserved": gorm.Expr("reserved + ?", input.Quantity),
				"total":    gorm.Expr("total - ?", input.Quantity),
			})
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "db: decrement stock")
		}
		if res.RowsAffected == 0 {
			return pkgerrors.InsufficientStock(product.StockFor(input.Branch))
		}

		reservation = &models.Reservation{
			ID:             uuid.New(),
			ProductID:      product.ID,
			ProductName:    product.Name,
			ProductBrand:   product.Brand,
			Quantity:       input.Quantity,
			Branch:         input.Branch,
			ReservedBy:     input.ReservedBy,
			ReservedByName: input.ReservedByName,
			ReservedAt:     now,
			ExpiresAt:      now.Add(s.ttl),
		}
		if err := s.repo.WithTx(tx).Create(ctx, reservation); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert reservation")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, enums.MovementActionReservationCreated, enums.MovementEntityReservation, reservation.ID.String(), map[string]any{
		"product_id":  reservation.ProductID,
		"branch":      string(reservation.Branch),
		"quantity":    reservation.Quantity,
		"reserved_by": reservation.ReservedBy,
	})
	s.metrics.IncReservation("created")
	s.metrics.IncMutation("reserve")
	return reservation, nil
}

// Cancel restores the branch stock and removes the reservation row. The
// restore runs first: a failure between the two steps leaves the row behind
// as evidence of the un-released claim instead of silently losing it.
func (s *service) Cancel(ctx context.Context, id uuid.UUID) error {
	reservation, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "reserva não encontrada")
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load reservation")
	}

	if err := s.restoreStock(ctx, reservation); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		combined := multierr.Append(err, errOrphanAfterRestore)
		logCtx := s.logg.WithField(ctx, "reservation_id", id.String())
		s.logg.Error(logCtx, "reservation delete failed after stock restore", combined)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, combined, "db: delete reservation")
	}

	s.recorder.Record(ctx, enums.MovementActionReservationCancelled, enums.MovementEntityReservation, id.String(), map[string]any{
		"product_id": reservation.ProductID,
		"branch":     string(reservation.Branch),
		"quantity":   reservation.Quantity,
	})
	s.metrics.IncReservation("cancelled")
	s.metrics.IncMutation("cancel")
	return nil
}

// ListActive returns reservations that still block stock. Expiry is a read
// filter: an expired row keeps blocking stock until CleanupExpired runs.
func (s *service) ListActive(ctx context.Context) ([]models.Reservation, error) {
	reservations, err := s.repo.ListActive(ctx, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list reservations")
	}
	return reservations, nil
}

// CleanupExpired releases every reservation past its expiry. Failures are
// per-reservation; one bad row does not block the sweep.
func (s *service) CleanupExpired(ctx context.Context) (int, error) {
	expired, err := s.repo.ListExpired(ctx, s.now())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list expired reservations")
	}

	released := 0
	var sweepErr error
	for i := range expired {
		reservation := &expired[i]
		if err := s.restoreStock(ctx, reservation); err != nil {
			sweepErr = multierr.Append(sweepErr, err)
			continue
		}
		if err := s.repo.Delete(ctx, reservation.ID); err != nil {
			sweepErr = multierr.Append(sweepErr, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete expired reservation"))
			continue
		}
		s.recorder.Record(ctx, enums.MovementActionReservationExpired, enums.MovementEntityReservation, reservation.ID.String(), map[string]any{
			"product_id": reservation.ProductID,
			"branch":     string(reservation.Branch),
			"quantity":   reservation.Quantity,
		})
		s.metrics.IncReservation("expired")
		released++
	}
	return released, sweepErr
}

// restoreStock puts the reserved quantity back on the reservation's branch.
// A missing product is not an error: the row can still be removed.
func (s *service) restoreStock(ctx context.Context, reservation *models.Reservation) error {
	product, err := s.products.FindByID(ctx, reservation.ProductID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product for restore")
	}

	product.SetStockFor(reservation.Branch, product.StockFor(reservation.Branch)+reservation.Quantity)
	product.Reserved = clampNonNegative(product.Reserved - reservation.Quantity)
	product.RecomputeTotal()

	if err := s.products.UpdateStock(ctx, product); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: restore stock")
	}
	return nil
}

func stockColumn(branch enums.Branch) string {
	switch branch {
	case enums.BranchCE:
		return "stock_ce"
	case enums.BranchSC:
		return "stock_sc"
	case enums.BranchSP:
		return "stock_sp"
	}
	return ""
}

func clampNonNegative(value int) int {
	if value < 0 {
		return 0
	}
	return value
}
