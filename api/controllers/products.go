package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/estoque-mci/estoque-api/api/middleware"
	"github.com/estoque-mci/estoque-api/api/responses"
	"github.com/estoque-mci/estoque-api/api/validators"
	"github.com/estoque-mci/estoque-api/internal/inventory"
	"github.com/estoque-mci/estoque-api/pkg/db/models"
	"github.com/estoque-mci/estoque-api/pkg/enums"
	pkgerrors "github.com/estoque-mci/estoque-api/pkg/errors"
	"github.com/estoque-mci/estoque-api/pkg/logger"
)

type productCreateRequest struct {
	ID                  string  `json:"id" validate:"required"`
	Name                string  `json:"name" validate:"required"`
	Brand               string  `json:"brand"`
	StockCE             int     `json:"stock_ce" validate:"min=0"`
	StockSC             int     `json:"stock_sc" validate:"min=0"`
	StockSP             int     `json:"stock_sp" validate:"min=0"`
	ImportQuantity      *int    `json:"import_quantity"`
	ExpectedRestockDate *string `json:"expected_restock_date"`
	Observations        *string `json:"observations"`
	ImageURL            *string `json:"image_url"`
	BrandLogo           *string `json:"brand_logo"`
}

type productUpdateRequest struct {
	Name                *string `json:"name"`
	Brand               *string `json:"brand"`
	ImportQuantity      *int    `json:"import_quantity"`
	ExpectedRestockDate *string `json:"expected_restock_date"`
	Observations        *string `json:"observations"`
	ImageURL            *string `json:"image_url"`
	BrandLogo           *string `json:"brand_logo"`
}

type adjustStockRequest struct {
	CE int `json:"ce"`
	SC int `json:"sc"`
	SP int `json:"sp"`
}

// ProductList handles listing and searching products. The optional branch
// filter keeps only products with available stock on that branch.
func ProductList(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := strings.TrimSpace(r.URL.Query().Get("q"))

		products, err := svc.SearchProducts(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("branch")); raw != "" {
			branch, err := enums.ParseBranch(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "filial inválida"))
				return
			}
			filtered := make([]models.Product, 0, len(products))
			for _, product := range products {
				if product.StockFor(branch) > 0 {
					filtered = append(filtered, product)
				}
			}
			products = filtered
		}

		responses.WriteSuccess(w, products)
	}
}

// ProductGet handles loading one product by code.
func ProductGet(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		product, err := svc.GetProduct(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ProductCreate handles manual product registration.
func ProductCreate(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload productCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.RegisterProduct(r.Context(), inventory.RegisterProductInput{
			ID:                  payload.ID,
			Name:                payload.Name,
			Brand:               payload.Brand,
			StockCE:             payload.StockCE,
			StockSC:             payload.StockSC,
			StockSP:             payload.StockSP,
			ImportQuantity:      payload.ImportQuantity,
			ExpectedRestockDate: payload.ExpectedRestockDate,
			Observations:        payload.Observations,
			ImageURL:            payload.ImageURL,
			BrandLogo:           payload.BrandLogo,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// ProductUpdate handles descriptive and enrichment edits.
func ProductUpdate(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload productUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(r.Context(), chi.URLParam(r, "id"), inventory.UpdateProductInput{
			Name:                payload.Name,
			Brand:               payload.Brand,
			ImportQuantity:      payload.ImportQuantity,
			ExpectedRestockDate: payload.ExpectedRestockDate,
			Observations:        payload.Observations,
			ImageURL:            payload.ImageURL,
			BrandLogo:           payload.BrandLogo,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ProductDelete handles removing a product.
func ProductDelete(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

// ProductAdjust applies signed per-branch deltas to one product.
func ProductAdjust(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload adjustStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		deltas := inventory.BranchDeltas{CE: payload.CE, SC: payload.SC, SP: payload.SP}
		if deltas.IsZero() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "nenhum ajuste informado"))
			return
		}

		actor := middleware.UserEmailFromContext(r.Context())
		product, err := svc.AdjustStock(r.Context(), chi.URLParam(r, "id"), deltas, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}
