// Package inventory owns the product stock records and the mutation engine
// shared by the adjustment, upload, ingestion, and reservation paths.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/estoque-mci/estoque-api/internal/audit"
	"github.com/estoque-mci/estoque-api/internal/normalize"
	"github.com/estoque-mci/estoque-api/pkg/db"
	"github.com/estoque-mci/estoque-api/pkg/db/models"
	"github.com/estoque-mci/estoque-api/pkg/enums"
	pkgerrors "github.com/estoque-mci/estoque-api/pkg/errors"
	"github.com/estoque-mci/estoque-api/pkg/metrics"
)

// DefaultBrand is the placeholder assigned to auto-registered products.
const DefaultBrand = "Sem marca"

// Service exposes product and stock mutation operations.
type Service interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	SearchProducts(ctx context.Context, query string) ([]models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	RegisterProduct(ctx context.Context, input RegisterProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id string, input UpdateProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	AdjustStock(ctx context.Context, id string, deltas BranchDeltas, actor string) (*models.Product, error)
}

// RegisterProductInput holds the validated payload to create a product.
type RegisterProductInput struct {
	ID                  string
	Name                string
	Brand               string
	StockCE             int
	StockSC             int
	StockSP             int
	ImportQuantity      *int
	ExpectedRestockDate *string
	Observations        *string
	ImageURL            *string
	BrandLogo           *string
}

// UpdateProductInput holds optional mutation values for the descriptive and
// enrichment fields. Stock columns are never touched by this path.
type UpdateProductInput struct {
	Name                *string
	Brand               *string
	ImportQuantity      *int
	ExpectedRestockDate *string
	Observations        *string
	ImageURL            *string
	BrandLogo           *string
}

// BranchDeltas carries one signed delta per branch. Zero means untouched.
type BranchDeltas struct {
	CE int
	SC int
	SP int
}

// IsZero reports whether no branch would change.
func (d BranchDeltas) IsZero() bool {
	return d.CE == 0 && d.SC == 0 && d.SP == 0
}

// For returns the delta targeting the given branch.
func (d BranchDeltas) For(branch enums.Branch) int {
	switch branch {
	case enums.BranchCE:
		return d.CE
	case enums.BranchSC:
		return d.SC
	case enums.BranchSP:
		return d.SP
	}
	return 0
}

// DeltasFor builds deltas with a single non-zero branch.
func DeltasFor(branch enums.Branch, delta int) BranchDeltas {
	var d BranchDeltas
	switch branch {
	case enums.BranchCE:
		d.CE = delta
	case enums.BranchSC:
		d.SC = delta
	case enums.BranchSP:
		d.SP = delta
	}
	return d
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	recorder audit.Recorder
	metrics  *metrics.StockMetrics
}

// NewService constructs the inventory service.
func NewService(repo *Repository, dbClient *db.Client, recorder audit.Recorder, stockMetrics *metrics.StockMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{
		repo:     repo,
		dbClient: dbClient,
		recorder: recorder,
		metrics:  stockMetrics,
	}, nil
}

// ListProducts returns every product with duplicate legacy spellings merged
// into one record per canonical id.
func (s *service) ListProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list products")
	}
	return mergeProducts(products), nil
}

// SearchProducts filters by id, name, or brand and merges duplicates.
func (s *service) SearchProducts(ctx context.Context, query string) ([]models.Product, error) {
	if strings.TrimSpace(query) == "" {
		return s.ListProducts(ctx)
	}
	products, err := s.repo.Search(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: search products")
	}
	return mergeProducts(products), nil
}

// GetProduct loads one product, accepting either legacy spelling of the id.
func (s *service) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "produto não encontrado")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}
	return product, nil
}

// RegisterProduct creates a product. A blank brand falls back to the
// placeholder used for auto-registered items.
func (s *service) RegisterProduct(ctx context.Context, input RegisterProductInput) (*models.Product, error) {
	id := normalize.CanonicalID(input.ID)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "código do produto obrigatório")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nome do produto obrigatório")
	}

	if existing, err := s.repo.FindByID(ctx, id); err == nil && existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "produto já cadastrado").
			WithDetails(map[string]any{"id": existing.ID})
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check product")
	}

	brand := strings.TrimSpace(input.Brand)
	if brand == "" {
		brand = DefaultBrand
	}

	product := &models.Product{
		ID:                  id,
		Name:                name,
		Brand:               brand,
		StockCE:             clampNonNegative(input.StockCE),
		StockSC:             clampNonNegative(input.StockSC),
		StockSP:             clampNonNegative(input.StockSP),
		ImportQuantity:      input.ImportQuantity,
		ExpectedRestockDate: input.ExpectedRestockDate,
		Observations:        input.Observations,
		ImageURL:            input.ImageURL,
		BrandLogo:           input.BrandLogo,
	}
	product.RecomputeTotal()

	if err := s.repo.Create(ctx, product); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "produto já cadastrado")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
	}

	s.recorder.Record(ctx, enums.MovementActionProductRegistered, enums.MovementEntityProduct, product.ID, map[string]any{
		"name":  product.Name,
		"brand": product.Brand,
	})
	return product, nil
}

// UpdateProduct mutates descriptive and enrichment fields only.
func (s *service) UpdateProduct(ctx context.Context, id string, input UpdateProductInput) (*models.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "nome do produto obrigatório")
		}
		product.Name = name
	}
	if input.Brand != nil {
		product.Brand = strings.TrimSpace(*input.Brand)
	}
	if input.ImportQuantity != nil {
		product.ImportQuantity = input.ImportQuantity
	}
	if input.ExpectedRestockDate != nil {
		product.ExpectedRestockDate = input.ExpectedRestockDate
	}
	if input.Observations != nil {
		product.Observations = input.Observations
	}
	if input.ImageURL != nil {
		product.ImageURL = input.ImageURL
	}
	if input.BrandLogo != nil {
		product.BrandLogo = input.BrandLogo
	}

	if err := s.repo.Save(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
	}
	return product, nil
}

// DeleteProduct removes the product row.
func (s *service) DeleteProduct(ctx context.Context, id string) error {
	if _, err := s.GetProduct(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete product")
	}
	return nil
}

// AdjustStock applies one signed delta per branch. A delta that would drive a
// branch negative floors at exactly zero without error; the total is always
// recomputed from the three new branch values and persisted in one update.
func (s *service) AdjustStock(ctx context.Context, id string, deltas BranchDeltas, actor string) (*models.Product, error) {
	type change struct {
		branch   enums.Branch
		old, new int
	}

	var (
		updated *models.Product
		changes []change
	)

	// The recorder writes on its own connection, so audit rows are emitted
	// only after the transaction commits.
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		product, err := txRepo.FindByID(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "produto não encontrado")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
		}

		changes = changes[:0]
		for _, branch := range enums.Branches() {
			delta := deltas.For(branch)
			if delta == 0 {
				continue
			}
			old := product.StockFor(branch)
			next := clampNonNegative(old + delta)
			product.SetStockFor(branch, next)
			changes = append(changes, change{branch: branch, old: old, new: next})
		}
		product.RecomputeTotal()

		if err := txRepo.UpdateStock(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update stock")
		}

		updated = product
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, c := range changes {
		s.recorder.Record(ctx, enums.MovementActionStockAdjusted, enums.MovementEntityProduct, updated.ID, map[string]any{
			"branch":    string(c.branch),
			"old_value": c.old,
			"new_value": c.new,
			"actor":     actor,
			"summary":   fmt.Sprintf("estoque %s: %d -> %d", c.branch, c.old, c.new),
		})
	}

	s.metrics.IncMutation("adjust")
	return updated, nil
}

// mergeProducts collapses duplicate legacy spellings on the read path, summing
// stock across the duplicate rows.
func mergeProducts(products []models.Product) []models.Product {
	rows := make([]normalize.ProductRow, 0, len(products))
	byCanonical := make(map[string]models.Product, len(products))

	for _, p := range products {
		id := normalize.CanonicalID(p.ID)
		if _, seen := byCanonical[id]; !seen {
			byCanonical[id] = p
		}
		rows = append(rows, normalize.ProductRow{
			ID:       p.ID,
			Name:     p.Name,
			Brand:    p.Brand,
			StockCE:  p.StockCE,
			StockSC:  p.StockSC,
			StockSP:  p.StockSP,
			Reserved: p.Reserved,
		})
	}

	merged := normalize.Merge(rows)
	out := make([]models.Product, 0, len(merged))
	for _, row := range merged {
		product := byCanonical[row.ID]
		product.ID = row.ID
		product.StockCE = row.StockCE
		product.StockSC = row.StockSC
		product.StockSP = row.StockSP
		product.Reserved = row.Reserved
		product.Total = row.Total
		out = append(out, product)
	}
	return out
}

func clampNonNegative(value int) int {
	if value < 0 {
		return 0
	}
	return value
}
