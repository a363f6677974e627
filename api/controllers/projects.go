package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/estoque-mci/estoque-api/api/responses"
	"github.com/estoque-mci/estoque-api/api/validators"
	"github.com/estoque-mci/estoque-api/internal/projects"
	pkgerrors "github.com/estoque-mci/estoque-api/pkg/errors"
	"github.com/estoque-mci/estoque-api/pkg/logger"
)

type projectItemRequest struct {
	ProductCode string `json:"product_code" validate:"required"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity" validate:"min=0"`
}

type projectCreateRequest struct {
	Name        string               `json:"name" validate:"required"`
	Supplier    string               `json:"supplier"`
	ArrivalDate *time.Time           `json:"arrival_date"`
	Notes       *string              `json:"notes"`
	Items       []projectItemRequest `json:"items"`
}

type projectUpdateRequest struct {
	Name        *string               `json:"name"`
	Supplier    *string               `json:"supplier"`
	Status      *string               `json:"status"`
	ArrivalDate *time.Time            `json:"arrival_date"`
	Notes       *string               `json:"notes"`
	Items       *[]projectItemRequest `json:"items"`
}

func toItemInputs(items []projectItemRequest) []projects.ItemInput {
	inputs := make([]projects.ItemInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, projects.ItemInput{
			ProductCode: item.ProductCode,
			Description: item.Description,
			Quantity:    item.Quantity,
		})
	}
	return inputs
}

// ProjectList handles listing import projects with items.
func ProjectList(svc projects.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ProjectGet handles loading one project.
func ProjectGet(svc projects.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "id de projeto inválido"))
			return
		}

		project, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, project)
	}
}

// ProjectCreate handles opening an import project.
func ProjectCreate(svc projects.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload projectCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		project, err := svc.Create(r.Context(), projects.CreateInput{
			Name:        payload.Name,
			Supplier:    payload.Supplier,
			ArrivalDate: payload.ArrivalDate,
			Notes:       payload.Notes,
			Items:       toItemInputs(payload.Items),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, project)
	}
}

// ProjectUpdate handles project edits; a non-nil items list replaces lines.
func ProjectUpdate(svc projects.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "id de projeto inválido"))
			return
		}

		var payload projectUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := projects.UpdateInput{
			Name:        payload.Name,
			Supplier:    payload.Supplier,
			Status:      payload.Status,
			ArrivalDate: payload.ArrivalDate,
			Notes:       payload.Notes,
		}
		if payload.Items != nil {
			items := toItemInputs(*payload.Items)
			input.Items = &items
		}

		project, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, project)
	}
}

// ProjectDelete removes a project and, through the cascade, its items.
func ProjectDelete(svc projects.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "id de projeto inválido"))
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}
