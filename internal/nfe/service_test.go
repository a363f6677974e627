package nfe

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/estoque-mci/estoque-api/internal/audit"
	"github.com/estoque-mci/estoque-api/internal/branchmap"
	"github.com/estoque-mci/estoque-api/internal/inventory"
	"github.com/estoque-mci/estoque-api/pkg/db"
	"github.com/estoque-mci/estoque-api/pkg/db/models"
	"github.com/estoque-mci/estoque-api/pkg/enums"
	"github.com/estoque-mci/estoque-api/pkg/logger"
)

const sampleXML = `<?xml version="1.0" encoding="UTF-8"?>
<nfeProc>
  <NFe>
    <infNFe>
      <ide>
        <nNF>12345</nNF>
        <serie>1</serie>
        <dhEmi>2025-08-01T10:30:00-03:00</dhEmi>
        <tpNF>0</tpNF>
        <natOp>VENDA DE MERCADORIA</natOp>
      </ide>
      <emit><CNPJ>11111111000111</CNPJ></emit>
      <dest><CNPJ>22222222000122</CNPJ></dest>
      <det><prod><cProd>100</cProd><xProd>Compressor</xProd><qCom>5.0000</qCom><CFOP>5102</CFOP></prod></det>
      <det><prod><cProd>200</cProd><xProd>Talha</xProd><qCom>2.0000</qCom><CFOP>5102</CFOP></prod></det>
    </infNFe>
  </NFe>
</nfeProc>`

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:nfe_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.Product{}, &models.StockMovement{}, &models.BranchMapping{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func newTestService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	recorder := audit.NewRecorder(conn, logg)
	repo := inventory.NewRepository(conn)
	products, err := inventory.NewService(repo, db.NewWithConn(conn), recorder, nil)
	if err != nil {
		t.Fatalf("inventory service: %v", err)
	}
	svc, err := NewService(products, repo, branchmap.NewRepository(conn), recorder, nil)
	if err != nil {
		t.Fatalf("nfe service: %v", err)
	}
	return svc
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

func TestParseExtractsInvoiceFields(t *testing.T) {
	invoice, err := Parse([]byte(sampleXML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if invoice.Number != "12345" || invoice.Series != "1" {
		t.Fatalf("unexpected header: %+v", invoice)
	}
	if invoice.DocumentType != 0 || invoice.EmitterCNPJ != "11111111000111" || invoice.ReceiverCNPJ != "22222222000122" {
		t.Fatalf("unexpected parties: %+v", invoice)
	}
	if len(invoice.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(invoice.Items))
	}
	if invoice.Items[0].Code != "100" || invoice.Items[0].Quantity != 5 || invoice.Items[0].CFOP != "5102" {
		t.Fatalf("unexpected first item: %+v", invoice.Items[0])
	}
}

func TestParseRejectsMissingInfNFe(t *testing.T) {
	_, err := Parse([]byte(`<?xml version="1.0"?><nfeProc><outro/></nfeProc>`))
	if err == nil {
		t.Fatalf("expected rejection")
	}
}

func TestIsTransferNature(t *testing.T) {
	if !IsTransferNature("TRANSFERENCIA DE MERCADORIA") {
		t.Fatalf("uppercase transfer must match")
	}
	if !IsTransferNature("Transferência entre filiais") {
		t.Fatalf("accented transfer must match")
	}
	if IsTransferNature("VENDA DE MERCADORIA") {
		t.Fatalf("sale must not match")
	}
}

func TestPreviewResolvesBranchAndFlagsNewItems(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	seedProduct(t, conn, models.Product{ID: "100", Name: "Compressor"})

	mappings := branchmap.NewRepository(conn)
	if err := mappings.Assign(context.Background(), "22222222000122", enums.BranchCE); err != nil {
		t.Fatalf("assign mapping: %v", err)
	}

	units := svc.Preview(context.Background(), []File{{Name: "nota.xml", Data: []byte(sampleXML)}})
	if len(units) != 1 {
		t.Fatalf("expected 1 unit, got %d", len(units))
	}

	unit := units[0]
	if unit.Error != "" {
		t.Fatalf("unexpected error: %s", unit.Error)
	}
	// tpNF=0 means entry; branch resolves via the RECEIVING party.
	if unit.Operation != "entry" || unit.Branch != "CE" {
		t.Fatalf("unexpected classification: %+v", unit)
	}
	if unit.NeedsOperationSelection {
		t.Fatalf("plain sale must not need selection")
	}
	if unit.NewItemCount != 1 || !unit.Items[1].IsNew || unit.Items[0].IsNew {
		t.Fatalf("expected only code 200 flagged new: %+v", unit.Items)
	}
}

func TestPreviewUnmappedCNPJ(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)

	units := svc.Preview(context.Background(), []File{{Name: "nota.xml", Data: []byte(sampleXML)}})
	if units[0].Branch != "" || units[0].UnmappedCNPJ != "22222222000122" {
		t.Fatalf("expected unmapped receiver cnpj, got %+v", units[0])
	}
}

func TestPreviewTransferNeedsSelection(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)

	data := strings.Replace(sampleXML, "VENDA DE MERCADORIA", "TRANSFERENCIA ENTRE FILIAIS", 1)
	units := svc.Preview(context.Background(), []File{{Name: "nota.xml", Data: []byte(data)}})
	if !units[0].IsTransfer || !units[0].NeedsOperationSelection {
		t.Fatalf("transfer must require explicit direction: %+v", units[0])
	}
}

func TestPreviewMalformedFileDoesNotAffectSiblings(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)

	units := svc.Preview(context.Background(), []File{
		{Name: "ruim.xml", Data: []byte(`<nfeProc><nada/></nfeProc>`)},
		{Name: "boa.xml", Data: []byte(sampleXML)},
	})
	if len(units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(units))
	}
	if units[0].Error == "" {
		t.Fatalf("malformed file must carry its error")
	}
	if units[1].Error != "" || units[1].Invoice == nil {
		t.Fatalf("sibling must parse normally: %+v", units[1])
	}
}

func TestProcessEntryAndExitSign(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	seedProduct(t, conn, models.Product{ID: "100", Name: "Compressor", StockCE: 1, StockSC: 2, StockSP: 10})

	results := svc.Process(context.Background(), []ProcessUnit{{
		FileName:  "saida.xml",
		Operation: "exit",
		Branch:    "SP",
		Items:     []LineItem{{Code: "100", Description: "Compressor", Quantity: 5}},
	}}, "tester")
	if !results[0].Success {
		t.Fatalf("process exit: %s", results[0].Message)
	}

	product := loadProduct(t, conn, "100")
	if product.StockSP != 5 || product.StockCE != 1 || product.StockSC != 2 {
		t.Fatalf("exit must decrease only SP: %+v", product)
	}

	results = svc.Process(context.Background(), []ProcessUnit{{
		FileName:  "entrada.xml",
		Operation: "entry",
		Branch:    "SP",
		Items:     []LineItem{{Code: "100", Description: "Compressor", Quantity: 5}},
	}}, "tester")
	if !results[0].Success {
		t.Fatalf("process entry: %s", results[0].Message)
	}

	product = loadProduct(t, conn, "100")
	if product.StockSP != 10 {
		t.Fatalf("entry must increase SP back to 10, got %d", product.StockSP)
	}
	if product.Total != product.StockCE+product.StockSC+product.StockSP {
		t.Fatalf("total invariant broken: %+v", product)
	}
}

func TestProcessAutoRegistersUnknownProducts(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)

	results := svc.Process(context.Background(), []ProcessUnit{{
		FileName:  "nota.xml",
		Operation: "entry",
		Branch:    "CE",
		Items:     []LineItem{{Code: "900", Description: "Furadeira", Quantity: 7}},
	}}, "tester")
	if !results[0].Success {
		t.Fatalf("process: %s", results[0].Message)
	}
	if results[0].Registered != 1 || results[0].Updated != 1 {
		t.Fatalf("unexpected counts: %+v", results[0])
	}
	if results[0].Message != "1 produtos cadastrados, 1 estoques atualizados" {
		t.Fatalf("unexpected summary: %q", results[0].Message)
	}

	product := loadProduct(t, conn, "900")
	if product.Brand != inventory.DefaultBrand {
		t.Fatalf("expected placeholder brand, got %q", product.Brand)
	}
	// Delta applies on top of the zero baseline from registration.
	if product.StockCE != 7 || product.StockSC != 0 || product.StockSP != 0 {
		t.Fatalf("unexpected stocks: %+v", product)
	}
}

func TestProcessSkipsUnresolvedUnitsWithoutBlockingSiblings(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	seedProduct(t, conn, models.Product{ID: "100", Name: "Compressor", StockCE: 3})

	results := svc.Process(context.Background(), []ProcessUnit{
		{FileName: "pendente.xml", Operation: "entry", Branch: "CE", NeedsOperationSelection: true,
			Items: []LineItem{{Code: "100", Quantity: 1}}},
		{FileName: "sem-filial.xml", Operation: "entry", Branch: "",
			Items: []LineItem{{Code: "100", Quantity: 1}}},
		{FileName: "ok.xml", Operation: "entry", Branch: "CE",
			Items: []LineItem{{Code: "100", Description: "Compressor", Quantity: 2}}},
	}, "tester")

	if results[0].Success || results[1].Success {
		t.Fatalf("unresolved units must fail: %+v", results[:2])
	}
	if !results[2].Success {
		t.Fatalf("sibling must still process: %s", results[2].Message)
	}

	product := loadProduct(t, conn, "100")
	if product.StockCE != 5 {
		t.Fatalf("only the resolved unit may mutate stock, got %d", product.StockCE)
	}
}
