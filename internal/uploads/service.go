// Package uploads applies full stock snapshots while preserving reservations
// and in-app enrichment edits.
package uploads

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/estoque-mci/estoque-api/internal/audit"
	"github.com/estoque-mci/estoque-api/internal/inventory"
	"github.com/estoque-mci/estoque-api/internal/normalize"
	"github.com/estoque-mci/estoque-api/internal/reservations"
	"github.com/estoque-mci/estoque-api/pkg/db"
	"github.com/estoque-mci/estoque-api/pkg/db/models"
	"github.com/estoque-mci/estoque-api/pkg/enums"
	pkgerrors "github.com/estoque-mci/estoque-api/pkg/errors"
	"github.com/estoque-mci/estoque-api/pkg/metrics"
)

// Service applies uploaded stock snapshots.
type Service interface {
	Apply(ctx context.Context, rows []normalize.ProductRow, actor string) (*Summary, error)
}

// Summary reports what one snapshot application did.
type Summary struct {
	Received int `json:"received"`
	Applied  int `json:"applied"`
}

type service struct {
	products     *inventory.Repository
	reservations *reservations.Repository
	dbClient     *db.Client
	recorder     audit.Recorder
	metrics      *metrics.StockMetrics
	now          func() time.Time
}

// NewService constructs the upload service.
func NewService(products *inventory.Repository, reservationRepo *reservations.Repository, dbClient *db.Client, recorder audit.Recorder, stockMetrics *metrics.StockMetrics) (Service, error) {
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if reservationRepo == nil {
		return nil, fmt.Errorf("reservation repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{
		products:     products,
		reservations: reservationRepo,
		dbClient:     dbClient,
		recorder:     recorder,
		metrics:      stockMetrics,
		now:          time.Now,
	}, nil
}

// Apply persists a full snapshot. Incoming stock numbers are PHYSICAL: active
// reservations are netted out per branch, floored at zero, to produce the
// stored available stock. Enrichment fields already stored win over spreadsheet
// values. A failure aborts the whole batch.
func (s *service) Apply(ctx context.Context, rows []normalize.ProductRow, actor string) (*Summary, error) {
	received := len(rows)
	rows = normalize.DedupeLastWins(rows)
	if len(rows) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nenhum produto válido no arquivo")
	}

	reserved, err := s.reservations.AggregateActive(ctx, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: aggregate reservations")
	}

	existing, err := s.products.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list products")
	}
	existingByID := make(map[string]*models.Product, len(existing))
	for i := range existing {
		existingByID[normalize.CanonicalID(existing[i].ID)] = &existing[i]
	}

	batch := make([]models.Product, 0, len(rows))
	for _, row := range rows {
		product := models.Product{
			ID:                  row.ID,
			Name:                row.Name,
			Brand:               row.Brand,
			ImportQuantity:      row.ImportQuantity,
			ExpectedRestockDate: row.ExpectedRestockDate,
			Observations:        row.Observations,
			ImageURL:            row.ImageURL,
			BrandLogo:           row.BrandLogo,
		}

		perBranch := reserved[row.ID]
		reservedTotal := 0
		for _, branch := range enums.Branches() {
			physical := stockFor(row, branch)
			blocked := perBranch[branch]
			reservedTotal += blocked
			available := physical - blocked
			if available < 0 {
				available = 0
			}
			product.SetStockFor(branch, available)
		}
		product.Reserved = reservedTotal
		product.RecomputeTotal()

		// Existing enrichment wins: in-app edits beat stale spreadsheet data.
		if prev, ok := existingByID[row.ID]; ok {
			if prev.ImportQuantity != nil {
				product.ImportQuantity = prev.ImportQuantity
			}
			if prev.ExpectedRestockDate != nil {
				product.ExpectedRestockDate = prev.ExpectedRestockDate
			}
			if prev.Observations != nil {
				product.Observations = prev.Observations
			}
			if prev.ImageURL != nil {
				product.ImageURL = prev.ImageURL
			}
			if prev.BrandLogo != nil {
				product.BrandLogo = prev.BrandLogo
			}
		}

		batch = append(batch, product)
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		return s.products.WithTx(tx).UpsertBatch(ctx, batch)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: upsert snapshot")
	}

	s.recorder.Record(ctx, enums.MovementActionSnapshotApplied, enums.MovementEntityProduct, "batch", map[string]any{
		"received": received,
		"applied":  len(batch),
		"actor":    actor,
	})
	s.metrics.IncMutation("upload")

	return &Summary{Received: received, Applied: len(batch)}, nil
}

func stockFor(row normalize.ProductRow, branch enums.Branch) int {
	switch branch {
	case enums.BranchCE:
		return row.StockCE
	case enums.BranchSC:
		return row.StockSC
	case enums.BranchSP:
		return row.StockSP
	}
	return 0
}
