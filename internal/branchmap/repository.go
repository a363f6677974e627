// Package branchmap resolves NFe party CNPJs to the branch they belong to.
package branchmap

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/estoque-mci/estoque-api/pkg/db/models"
	"github.com/estoque-mci/estoque-api/pkg/enums"
	pkgerrors "github.com/estoque-mci/estoque-api/pkg/errors"
)

// Repository persists CNPJ to branch assignments.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// NormalizeCNPJ strips formatting so "12.345.678/0001-90" and its bare-digit
// spelling resolve to the same mapping.
func NormalizeCNPJ(cnpj string) string {
	var b strings.Builder
	for _, r := range cnpj {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Resolve returns the branch assigned to the CNPJ, or ok=false when no
// mapping exists yet.
func (r *Repository) Resolve(ctx context.Context, cnpj string) (enums.Branch, bool, error) {
	key := NormalizeCNPJ(cnpj)
	if key == "" {
		return "", false, nil
	}

	var mapping models.BranchMapping
	err := r.db.WithContext(ctx).First(&mapping, "cnpj = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve branch mapping")
	}
	return mapping.Branch, true, nil
}

// Assign upserts the mapping for the CNPJ. Re-assigning an already mapped
// CNPJ overwrites the previous branch.
func (r *Repository) Assign(ctx context.Context, cnpj string, branch enums.Branch) error {
	key := NormalizeCNPJ(cnpj)
	if key == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cnpj obrigatório")
	}
	if !branch.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "filial inválida")
	}

	mapping := models.BranchMapping{CNPJ: key, Branch: branch}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cnpj"}},
		DoUpdates: clause.AssignmentColumns([]string{"branch", "updated_at"}),
	}).Create(&mapping).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "assign branch mapping")
	}
	return nil
}

// List returns every stored mapping ordered by CNPJ.
func (r *Repository) List(ctx context.Context) ([]models.BranchMapping, error) {
	var mappings []models.BranchMapping
	if err := r.db.WithContext(ctx).Order("cnpj asc").Find(&mappings).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list branch mappings")
	}
	return mappings, nil
}
