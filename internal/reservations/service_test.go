package reservations

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/estoque-mci/estoque-api/internal/audit"
	"github.com/estoque-mci/estoque-api/internal/inventory"
	"github.com/estoque-mci/estoque-api/pkg/db"
	"github.com/estoque-mci/estoque-api/pkg/db/models"
	"github.com/estoque-mci/estoque-api/pkg/enums"
	pkgerrors "github.com/estoque-mci/estoque-api/pkg/errors"
	"github.com/estoque-mci/estoque-api/pkg/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:reservations_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.Product{}, &models.Reservation{}, &models.StockMovement{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func newTestService(t *testing.T, conn *gorm.DB) *service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(
		NewRepository(conn),
		inventory.NewRepository(conn),
		db.NewWithConn(conn),
		audit.NewRecorder(conn, logg),
		nil,
		logg,
		7*24*time.Hour,
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc.(*service)
}

func seedProduct(t *testing.T, conn *gorm.DB, product models.Product) {
	t.Helper()
	product.RecomputeTotal()
	if err := conn.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
}

func loadProduct(t *testing.T, conn *gorm.DB, id string) models.Product {
	t.Helper()
	var product models.Product
	if err := conn.First(&product, "id = ?", id).Error; err != nil {
		t.Fatalf("load product %s: %v", id, err)
	}
	return product
}

func TestReserveDecrementsBranchStock(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	seedProduct(t, conn, models.Product{ID: "100", Name: "Compressor", Brand: "Atlas", StockCE: 10, StockSP: 4})

	reservation, err := svc.Reserve(context.Background(), ReserveInput{
		ProductID:      "100",
		Quantity:       3,
		Branch:         enums.BranchCE,
		ReservedBy:     "user-1",
		ReservedByName: "Maria",
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if reservation.ProductName != "Compressor" || reservation.ProductBrand != "Atlas" {
		t.Fatalf("expected denormalized product snapshot, got %+v", reservation)
	}
	if got := reservation.ExpiresAt.Sub(reservation.ReservedAt); got != 7*24*time.Hour {
		t.Fatalf("expected 7 day window, got %s", got)
	}

	product := loadProduct(t, conn, "100")
	if product.StockCE != 7 || product.Reserved != 3 {
		t.Fatalf("unexpected product state: %+v", product)
	}
	if product.Total != product.StockCE+product.StockSC+product.StockSP {
		t.Fatalf("total invariant broken: %+v", product)
	}
}

func TestReserveInsufficientStockLeavesEverythingUntouched(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	seedProduct(t, conn, models.Product{ID: "100", Name: "Compressor", StockSP: 2})

	_, err := svc.Reserve(context.Background(), ReserveInput{
		ProductID:  "100",
		Quantity:   5,
		Branch:     enums.BranchSP,
		ReservedBy: "user-1",
	})
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	details, ok := coded.Details().(map[string]any)
	if !ok || details["available"] != 2 {
		t.Fatalf("expected available=2 in details, got %+v", coded.Details())
	}

	product := loadProduct(t, conn, "100")
	if product.StockSP != 2 || product.Reserved != 0 {
		t.Fatalf("product must be untouched: %+v", product)
	}
	var count int64
	if err := conn.Model(&models.Reservation{}).Count(&count).Error; err != nil {
		t.Fatalf("count reservations: %v", err)
	}
	if count != 0 {
		t.Fatalf("no reservation row may exist, got %d", count)
	}
}

func TestReserveCancelRoundTrip(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	seedProduct(t, conn, models.Product{ID: "100", Name: "Compressor", StockSC: 6})
	before := loadProduct(t, conn, "100")

	reservation, err := svc.Reserve(context.Background(), ReserveInput{
		ProductID:  "100",
		Quantity:   4,
		Branch:     enums.BranchSC,
		ReservedBy: "user-1",
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := svc.Cancel(context.Background(), reservation.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	after := loadProduct(t, conn, "100")
	if after.StockSC != before.StockSC || after.Reserved != before.Reserved || after.Total != before.Total {
		t.Fatalf("round trip must restore state exactly: before=%+v after=%+v", before, after)
	}
}

func TestCancelUnknownReservation(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	seedProduct(t, conn, models.Product{ID: "100", Name: "Compressor", StockCE: 5})

	err := svc.Cancel(context.Background(), uuid.New())
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}

	product := loadProduct(t, conn, "100")
	if product.StockCE != 5 || product.Reserved != 0 {
		t.Fatalf("no writes may occur: %+v", product)
	}
}

func TestReserveResolvesLegacyIDSpelling(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	seedProduct(t, conn, models.Product{ID: "100", Name: "Compressor", StockCE: 2})

	reservation, err := svc.Reserve(context.Background(), ReserveInput{
		ProductID:  "100.0",
		Quantity:   1,
		Branch:     enums.BranchCE,
		ReservedBy: "user-1",
	})
	if err != nil {
		t.Fatalf("reserve via legacy spelling: %v", err)
	}
	if reservation.ProductID != "100" {
		t.Fatalf("expected canonical product id, got %q", reservation.ProductID)
	}
}

func TestListActiveExcludesExpired(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	seedProduct(t, conn, models.Product{ID: "100", Name: "Compressor", StockCE: 9})

	base := time.Now()
	svc.now = func() time.Time { return base }
	if _, err := svc.Reserve(context.Background(), ReserveInput{ProductID: "100", Quantity: 1, Branch: enums.BranchCE, ReservedBy: "u"}); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	// Jump past the 7 day window.
	svc.now = func() time.Time { return base.Add(8 * 24 * time.Hour) }
	active, err := svc.ListActive(context.Background())
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expired reservation must not list as active, got %d", len(active))
	}
}

func TestCleanupExpiredRestoresStock(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	seedProduct(t, conn, models.Product{ID: "100", Name: "Compressor", StockCE: 10})

	base := time.Now()
	svc.now = func() time.Time { return base }
	if _, err := svc.Reserve(context.Background(), ReserveInput{ProductID: "100", Quantity: 4, Branch: enums.BranchCE, ReservedBy: "u"}); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	// Before expiry the sweep releases nothing: the row still blocks stock.
	released, err := svc.CleanupExpired(context.Background())
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if released != 0 {
		t.Fatalf("nothing should be released before expiry, got %d", released)
	}

	svc.now = func() time.Time { return base.Add(8 * 24 * time.Hour) }
	released, err = svc.CleanupExpired(context.Background())
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if released != 1 {
		t.Fatalf("expected 1 released, got %d", released)
	}

	product := loadProduct(t, conn, "100")
	if product.StockCE != 10 || product.Reserved != 0 {
		t.Fatalf("stock must be restored: %+v", product)
	}

	var count int64
	if err := conn.Model(&models.Reservation{}).Count(&count).Error; err != nil {
		t.Fatalf("count reservations: %v", err)
	}
	if count != 0 {
		t.Fatalf("expired row must be removed, got %d", count)
	}
}
