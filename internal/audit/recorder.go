// Package audit appends stock movement entries describing every mutation the
// service performs. Recording is best effort: a failed write is logged and
// swallowed so it can never fail the mutation it describes.
package audit

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/estoque-mci/estoque-api/pkg/db/models"
	"github.com/estoque-mci/estoque-api/pkg/enums"
	"github.com/estoque-mci/estoque-api/pkg/logger"
)

// Recorder persists stock movement rows.
type Recorder interface {
	Record(ctx context.Context, action enums.MovementAction, entity enums.MovementEntity, entityID string, details any)
}

type recorder struct {
	db   *gorm.DB
	logg *logger.Logger
}

// NewRecorder builds a recorder writing to the provided GORM DB.
func NewRecorder(db *gorm.DB, logg *logger.Logger) Recorder {
	if db == nil {
		panic("audit: nil db")
	}
	if logg == nil {
		panic("audit: nil logger")
	}
	return &recorder{db: db, logg: logg}
}

// Record writes one movement row. Details are serialized to JSON; values that
// cannot be serialized are recorded with an empty payload rather than dropped.
func (r *recorder) Record(ctx context.Context, action enums.MovementAction, entity enums.MovementEntity, entityID string, details any) {
	payload := ""
	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			logCtx := r.logg.WithField(ctx, "action", string(action))
			r.logg.Warn(logCtx, "audit: details not serializable")
		} else {
			payload = string(raw)
		}
	}

	movement := &models.StockMovement{
		ID:         uuid.New(),
		ActionType: action,
		EntityType: entity,
		EntityID:   entityID,
		Details:    payload,
	}

	if err := r.db.WithContext(ctx).Create(movement).Error; err != nil {
		logCtx := r.logg.WithFields(ctx, map[string]any{
			"action":    string(action),
			"entity_id": entityID,
		})
		r.logg.Error(logCtx, "audit: movement write failed", err)
	}
}
