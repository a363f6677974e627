package cron

import (
	"context"
	"fmt"

	"github.com/estoque-mci/estoque-api/internal/reservations"
	"github.com/estoque-mci/estoque-api/pkg/logger"
)

// NewReservationExpiryJob builds the job that releases stock held by
// reservations whose window has lapsed.
func NewReservationExpiryJob(svc reservations.Service, logg *logger.Logger) (Job, error) {
	if svc == nil {
		return nil, fmt.Errorf("reservation service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &reservationExpiryJob{svc: svc, logg: logg}, nil
}

type reservationExpiryJob struct {
	svc  reservations.Service
	logg *logger.Logger
}

func (j *reservationExpiryJob) Name() string { return "reservation-expiry" }

func (j *reservationExpiryJob) Run(ctx context.Context) error {
	released, err := j.svc.CleanupExpired(ctx)
	if err != nil {
		return fmt.Errorf("cleanup expired reservations: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "released", released), "expired reservations released")
	return nil
}
