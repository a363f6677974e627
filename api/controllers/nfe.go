package controllers

import (
	"io"
	"net/http"

	"github.com/estoque-mci/estoque-api/api/middleware"
	"github.com/estoque-mci/estoque-api/api/responses"
	"github.com/estoque-mci/estoque-api/api/validators"
	"github.com/estoque-mci/estoque-api/internal/branchmap"
	"github.com/estoque-mci/estoque-api/internal/nfe"
	"github.com/estoque-mci/estoque-api/pkg/enums"
	pkgerrors "github.com/estoque-mci/estoque-api/pkg/errors"
	"github.com/estoque-mci/estoque-api/pkg/logger"
)

type nfeProcessRequest struct {
	Units []nfe.ProcessUnit `json:"units" validate:"required,min=1"`
}

type mappingAssignRequest struct {
	CNPJ   string `json:"cnpj" validate:"required"`
	Branch string `json:"branch" validate:"required"`
}

// NFePreview parses a batch of uploaded XML files into reviewable units.
func NFePreview(svc nfe.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "arquivos inválidos"))
			return
		}

		form := r.MultipartForm
		if form == nil || len(form.File["files"]) == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "campo files obrigatório"))
			return
		}

		files := make([]nfe.File, 0, len(form.File["files"]))
		for _, header := range form.File["files"] {
			file, err := header.Open()
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "falha ao ler arquivo"))
				return
			}
			data, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "falha ao ler arquivo"))
				return
			}
			files = append(files, nfe.File{Name: header.Filename, Data: data})
		}

		units := svc.Preview(r.Context(), files)
		responses.WriteSuccess(w, units)
	}
}

// NFeProcess applies reviewed ingestion units to stock.
func NFeProcess(svc nfe.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload nfeProcessRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := middleware.UserEmailFromContext(r.Context())
		results := svc.Process(r.Context(), payload.Units, actor)
		responses.WriteSuccess(w, results)
	}
}

// MappingList returns every stored CNPJ to branch assignment.
func MappingList(repo *branchmap.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mappings, err := repo.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, mappings)
	}
}

// MappingAssign stores a CNPJ to branch assignment for future invoices.
func MappingAssign(repo *branchmap.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload mappingAssignRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		branch, err := enums.ParseBranch(payload.Branch)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "filial inválida"))
			return
		}

		if err := repo.Assign(r.Context(), payload.CNPJ, branch); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{
			"cnpj":   branchmap.NormalizeCNPJ(payload.CNPJ),
			"branch": string(branch),
		})
	}
}
