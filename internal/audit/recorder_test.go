package audit

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/estoque-mci/estoque-api/pkg/db/models"
	"github.com/estoque-mci/estoque-api/pkg/enums"
	"github.com/estoque-mci/estoque-api/pkg/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:audit_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.StockMovement{}); err != nil {
		t.Fatalf("migrate movements: %v", err)
	}
	return db
}

func newTestLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestRecordPersistsMovement(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	rec := NewRecorder(db, newTestLogger())
	ctx := context.Background()

	rec.Record(ctx, enums.MovementActionStockAdjusted, enums.MovementEntityProduct, "1234", map[string]any{
		"branch": "CE",
		"delta":  -3,
	})

	var rows []models.StockMovement
	if err := db.Find(&rows).Error; err != nil {
		t.Fatalf("load movements: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 movement, got %d", len(rows))
	}
	row := rows[0]
	if row.ActionType != enums.MovementActionStockAdjusted {
		t.Fatalf("unexpected action: %s", row.ActionType)
	}
	if row.EntityType != enums.MovementEntityProduct || row.EntityID != "1234" {
		t.Fatalf("unexpected entity: %+v", row)
	}
	if row.Details == "" {
		t.Fatalf("expected serialized details")
	}
}

func TestRecordNeverPropagatesFailure(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	// Drop the table so the insert fails.
	if err := db.Migrator().DropTable(&models.StockMovement{}); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	rec := NewRecorder(db, newTestLogger())
	// Must not panic or return anything.
	rec.Record(context.Background(), enums.MovementActionNFeProcessed, enums.MovementEntityProduct, "x", nil)
}

func TestRecordToleratesUnserializableDetails(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	rec := NewRecorder(db, newTestLogger())

	rec.Record(context.Background(), enums.MovementActionSnapshotApplied, enums.MovementEntityProduct, "y", func() {})

	var row models.StockMovement
	if err := db.First(&row).Error; err != nil {
		t.Fatalf("load movement: %v", err)
	}
	if row.Details != "" {
		t.Fatalf("expected empty details, got %q", row.Details)
	}
}
