// Package projects tracks purchase-in-transit import projects and their item
// lines.
package projects

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/estoque-mci/estoque-api/internal/normalize"
	"github.com/estoque-mci/estoque-api/pkg/db"
	"github.com/estoque-mci/estoque-api/pkg/db/models"
	pkgerrors "github.com/estoque-mci/estoque-api/pkg/errors"
)

// Service exposes import project bookkeeping.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.ImportProject, error)
	List(ctx context.Context) ([]models.ImportProject, error)
	Get(ctx context.Context, id uuid.UUID) (*models.ImportProject, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.ImportProject, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ItemInput is one product line of a project.
type ItemInput struct {
	ProductCode string
	Description string
	Quantity    int
}

// CreateInput holds the payload to open a project.
type CreateInput struct {
	Name        string
	Supplier    string
	ArrivalDate *time.Time
	Notes       *string
	Items       []ItemInput
}

// UpdateInput holds optional mutations. A non-nil Items replaces every line.
type UpdateInput struct {
	Name        *string
	Supplier    *string
	Status      *string
	ArrivalDate *time.Time
	Notes       *string
	Items       *[]ItemInput
}

type service struct {
	dbClient *db.Client
}

// NewService constructs the project service.
func NewService(dbClient *db.Client) (Service, error) {
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{dbClient: dbClient}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.ImportProject, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nome do projeto obrigatório")
	}

	project := &models.ImportProject{
		ID:          uuid.New(),
		Name:        name,
		Supplier:    strings.TrimSpace(input.Supplier),
		Status:      "open",
		ArrivalDate: input.ArrivalDate,
		Notes:       input.Notes,
		Items:       buildItems(uuid.Nil, input.Items),
	}
	for i := range project.Items {
		project.Items[i].ProjectID = project.ID
	}

	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.WithContext(ctx).Create(project).Error
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert project")
	}
	return project, nil
}

func (s *service) List(ctx context.Context) ([]models.ImportProject, error) {
	var projects []models.ImportProject
	err := s.dbClient.DB().WithContext(ctx).
		Preload("Items").
		Order("created_at desc").
		Find(&projects).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list projects")
	}
	return projects, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.ImportProject, error) {
	var project models.ImportProject
	err := s.dbClient.DB().WithContext(ctx).
		Preload("Items").
		First(&project, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "projeto não encontrado")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load project")
	}
	return &project, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.ImportProject, error) {
	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "nome do projeto obrigatório")
		}
		project.Name = name
	}
	if input.Supplier != nil {
		project.Supplier = strings.TrimSpace(*input.Supplier)
	}
	if input.Status != nil {
		project.Status = *input.Status
	}
	if input.ArrivalDate != nil {
		project.ArrivalDate = input.ArrivalDate
	}
	if input.Notes != nil {
		project.Notes = input.Notes
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if input.Items != nil {
			if err := tx.WithContext(ctx).Delete(&models.ImportItem{}, "project_id = ?", id).Error; err != nil {
				return err
			}
			project.Items = buildItems(id, *input.Items)
			if len(project.Items) > 0 {
				if err := tx.WithContext(ctx).Create(&project.Items).Error; err != nil {
					return err
				}
			}
		}
		return tx.WithContext(ctx).Omit("Items").Save(project).Error
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update project")
	}
	return project, nil
}

// Delete removes the project; the FK cascade takes its items with it.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).Delete(&models.ImportItem{}, "project_id = ?", id).Error; err != nil {
			return err
		}
		return tx.WithContext(ctx).Delete(&models.ImportProject{}, "id = ?", id).Error
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete project")
	}
	return nil
}

func buildItems(projectID uuid.UUID, inputs []ItemInput) []models.ImportItem {
	items := make([]models.ImportItem, 0, len(inputs))
	for _, input := range inputs {
		code := normalize.CanonicalID(input.ProductCode)
		if code == "" {
			continue
		}
		items = append(items, models.ImportItem{
			ID:          uuid.New(),
			ProjectID:   projectID,
			ProductCode: code,
			Description: strings.TrimSpace(input.Description),
			Quantity:    input.Quantity,
		})
	}
	return items
}
