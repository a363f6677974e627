package nfe

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/estoque-mci/estoque-api/internal/audit"
	"github.com/estoque-mci/estoque-api/internal/branchmap"
	"github.com/estoque-mci/estoque-api/internal/inventory"
	"github.com/estoque-mci/estoque-api/pkg/enums"
	pkgerrors "github.com/estoque-mci/estoque-api/pkg/errors"
	"github.com/estoque-mci/estoque-api/pkg/metrics"
)

// File is one uploaded XML document.
type File struct {
	Name string
	Data []byte
}

// Unit is one parsed invoice prepared for review. The branch stays empty and
// NeedsOperationSelection stays true until the user resolves them.
type Unit struct {
	FileName                string        `json:"file_name"`
	Invoice                 *Invoice      `json:"invoice,omitempty"`
	Operation               string        `json:"operation,omitempty"`
	IsTransfer              bool          `json:"is_transfer"`
	NeedsOperationSelection bool          `json:"needs_operation_selection"`
	Branch                  string        `json:"branch,omitempty"`
	UnmappedCNPJ            string        `json:"unmapped_cnpj,omitempty"`
	Items                   []ItemPreview `json:"items"`
	NewItemCount            int           `json:"new_item_count"`
	Error                   string        `json:"error,omitempty"`
}

// ItemPreview annotates a line item with its registration status.
type ItemPreview struct {
	LineItem
	IsNew bool `json:"is_new"`
}

// ProcessUnit is one reviewed unit submitted for stock application.
type ProcessUnit struct {
	FileName                string     `json:"file_name"`
	Operation               string     `json:"operation"`
	Branch                  string     `json:"branch"`
	NeedsOperationSelection bool       `json:"needs_operation_selection"`
	Items                   []LineItem `json:"items"`
}

// UnitResult reports the outcome of processing one unit. Failures are
// per-unit; siblings keep processing.
type UnitResult struct {
	FileName   string `json:"file_name"`
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Registered int    `json:"registered"`
	Updated    int    `json:"updated"`
}

// Service turns NFe XML files into reviewed stock mutations.
type Service interface {
	Preview(ctx context.Context, files []File) []Unit
	Process(ctx context.Context, units []ProcessUnit, actor string) []UnitResult
}

type service struct {
	products inventory.Service
	repo     *inventory.Repository
	mappings *branchmap.Repository
	recorder audit.Recorder
	metrics  *metrics.StockMetrics
}

// NewService constructs the ingestion service.
func NewService(products inventory.Service, repo *inventory.Repository, mappings *branchmap.Repository, recorder audit.Recorder, stockMetrics *metrics.StockMetrics) (Service, error) {
	if products == nil {
		return nil, fmt.Errorf("inventory service required")
	}
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if mappings == nil {
		return nil, fmt.Errorf("branch mapping repository required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{
		products: products,
		repo:     repo,
		mappings: mappings,
		recorder: recorder,
		metrics:  stockMetrics,
	}, nil
}

// Preview parses each file into a reviewable unit. Malformed files become
// error units without affecting siblings.
func (s *service) Preview(ctx context.Context, files []File) []Unit {
	units := make([]Unit, 0, len(files))
	for _, file := range files {
		units = append(units, s.buildUnit(ctx, file))
	}
	return units
}

func (s *service) buildUnit(ctx context.Context, file File) Unit {
	unit := Unit{FileName: file.Name}

	invoice, err := Parse(file.Data)
	if err != nil {
		unit.Error = errorMessage(err)
		return unit
	}
	unit.Invoice = invoice

	// tpNF: 0 receives goods, 1 ships them. For transfers this is only a
	// hint; the user confirms the direction during review.
	operation := enums.NFeOperationEntry
	if invoice.DocumentType == 1 {
		operation = enums.NFeOperationExit
	}
	unit.Operation = string(operation)
	unit.IsTransfer = IsTransferNature(invoice.OperationNature)
	unit.NeedsOperationSelection = unit.IsTransfer

	partyCNPJ := invoice.ReceiverCNPJ
	if operation == enums.NFeOperationExit {
		partyCNPJ = invoice.EmitterCNPJ
	}
	branch, ok, err := s.mappings.Resolve(ctx, partyCNPJ)
	if err != nil {
		unit.Error = errorMessage(err)
		return unit
	}
	if ok {
		unit.Branch = string(branch)
	} else {
		unit.UnmappedCNPJ = branchmap.NormalizeCNPJ(partyCNPJ)
	}

	for _, item := range invoice.Items {
		preview := ItemPreview{LineItem: item}
		_, findErr := s.repo.FindByID(ctx, item.Code)
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			preview.IsNew = true
			unit.NewItemCount++
		} else if findErr != nil {
			unit.Error = errorMessage(pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "db: check product"))
			return unit
		}
		unit.Items = append(unit.Items, preview)
	}
	return unit
}

// Process applies reviewed units. Per unit, unknown products are registered
// first with zero stock, then every line's signed delta is applied to the
// resolved branch. One unit's failure never aborts the others.
func (s *service) Process(ctx context.Context, units []ProcessUnit, actor string) []UnitResult {
	results := make([]UnitResult, 0, len(units))
	for _, unit := range units {
		results = append(results, s.processUnit(ctx, unit, actor))
	}
	return results
}

func (s *service) processUnit(ctx context.Context, unit ProcessUnit, actor string) UnitResult {
	result := UnitResult{FileName: unit.FileName}

	if unit.NeedsOperationSelection {
		result.Message = "selecione entrada ou saída para a transferência"
		s.metrics.IncNFeUnit("skipped")
		return result
	}
	operation, err := enums.ParseNFeOperation(unit.Operation)
	if err != nil {
		result.Message = "operação inválida"
		s.metrics.IncNFeUnit("skipped")
		return result
	}
	branch, err := enums.ParseBranch(unit.Branch)
	if err != nil {
		result.Message = "filial não atribuída"
		s.metrics.IncNFeUnit("skipped")
		return result
	}

	// First pass: the adjuster assumes the row exists, so register every
	// unknown code with zero stock before touching quantities.
	for _, item := range unit.Items {
		_, findErr := s.repo.FindByID(ctx, item.Code)
		if findErr == nil {
			continue
		}
		if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			result.Message = errorMessage(pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "db: check product"))
			s.metrics.IncNFeUnit("failed")
			return result
		}
		if _, err := s.products.RegisterProduct(ctx, inventory.RegisterProductInput{
			ID:   item.Code,
			Name: item.Description,
		}); err != nil {
			result.Message = errorMessage(err)
			s.metrics.IncNFeUnit("failed")
			return result
		}
		result.Registered++
	}

	for _, item := range unit.Items {
		delta := item.Quantity * operation.Sign()
		if _, err := s.products.AdjustStock(ctx, item.Code, inventory.DeltasFor(branch, delta), actor); err != nil {
			result.Message = errorMessage(err)
			s.metrics.IncNFeUnit("failed")
			return result
		}
		result.Updated++
	}

	result.Success = true
	result.Message = fmt.Sprintf("%d produtos cadastrados, %d estoques atualizados", result.Registered, result.Updated)
	s.recorder.Record(ctx, enums.MovementActionNFeProcessed, enums.MovementEntityProduct, unit.FileName, map[string]any{
		"operation":  string(operation),
		"branch":     string(branch),
		"registered": result.Registered,
		"updated":    result.Updated,
		"actor":      actor,
	})
	s.metrics.IncNFeUnit("processed")
	s.metrics.IncMutation("nfe")
	return result
}

func errorMessage(err error) string {
	if coded := pkgerrors.As(err); coded != nil {
		return coded.Message()
	}
	return err.Error()
}
