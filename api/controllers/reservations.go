package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/estoque-mci/estoque-api/api/middleware"
	"github.com/estoque-mci/estoque-api/api/responses"
	"github.com/estoque-mci/estoque-api/api/validators"
	"github.com/estoque-mci/estoque-api/internal/reservations"
	"github.com/estoque-mci/estoque-api/pkg/enums"
	pkgerrors "github.com/estoque-mci/estoque-api/pkg/errors"
	"github.com/estoque-mci/estoque-api/pkg/logger"
)

type reservationCreateRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
	Branch    string `json:"branch" validate:"required"`
}

// ReservationList handles listing active reservations.
func ReservationList(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		active, err := svc.ListActive(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, active)
	}
}

// ReservationCreate handles locking stock for the calling user.
func ReservationCreate(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload reservationCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		branch, err := enums.ParseBranch(payload.Branch)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "filial inválida"))
			return
		}

		reservation, err := svc.Reserve(r.Context(), reservations.ReserveInput{
			ProductID:      payload.ProductID,
			Quantity:       payload.Quantity,
			Branch:         branch,
			ReservedBy:     middleware.UserEmailFromContext(r.Context()),
			ReservedByName: middleware.UserNameFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, reservation)
	}
}

// ReservationCancel handles releasing one reservation.
func ReservationCancel(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "id de reserva inválido"))
			return
		}

		if err := svc.Cancel(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"cancelled": true})
	}
}

// ReservationCleanup handles the explicit expired-reservation sweep.
func ReservationCleanup(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		released, err := svc.CleanupExpired(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"released": released})
	}
}
