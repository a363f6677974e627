package controllers

import (
	"encoding/csv"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/estoque-mci/estoque-api/api/middleware"
	"github.com/estoque-mci/estoque-api/api/responses"
	"github.com/estoque-mci/estoque-api/internal/normalize"
	"github.com/estoque-mci/estoque-api/internal/uploads"
	pkgerrors "github.com/estoque-mci/estoque-api/pkg/errors"
	"github.com/estoque-mci/estoque-api/pkg/logger"
)

const maxUploadBytes = 32 << 20

// snapshot column headers accepted from the spreadsheet, lowercased.
var snapshotColumns = map[string]string{
	"id":          "id",
	"codigo":      "id",
	"código":      "id",
	"code":        "id",
	"name":        "name",
	"nome":        "name",
	"produto":     "name",
	"brand":       "brand",
	"marca":       "brand",
	"ce":          "ce",
	"stock_ce":    "ce",
	"estoque_ce":  "ce",
	"sc":          "sc",
	"stock_sc":    "sc",
	"estoque_sc":  "sc",
	"sp":          "sp",
	"stock_sp":    "sp",
	"estoque_sp":  "sp",
	"reserved":    "reserved",
	"reservado":   "reserved",
	"observacoes": "observations",
	"obs":         "observations",
}

// ProductUpload handles a full stock snapshot file (CSV or XLSX).
func ProductUpload(svc uploads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "arquivo inválido"))
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "campo file obrigatório"))
			return
		}
		defer file.Close()

		rows, err := parseSnapshotFile(file, header.Filename)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := middleware.UserEmailFromContext(r.Context())
		summary, err := svc.Apply(r.Context(), rows, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

func parseSnapshotFile(file multipart.File, name string) ([]normalize.ProductRow, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return parseSnapshotCSV(file)
	case ".xlsx":
		return parseSnapshotXLSX(file)
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, "formato não suportado: use CSV ou XLSX")
}

func parseSnapshotCSV(reader io.Reader) ([]normalize.ProductRow, error) {
	r := csv.NewReader(reader)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "CSV inválido")
	}
	return rowsFromRecords(records)
}

func parseSnapshotXLSX(reader io.Reader) ([]normalize.ProductRow, error) {
	book, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "XLSX inválido")
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "planilha vazia")
	}
	records, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "XLSX inválido")
	}
	return rowsFromRecords(records)
}

// rowsFromRecords maps a header row plus data rows into product rows. Unknown
// columns are ignored; missing numerics coerce to zero.
func rowsFromRecords(records [][]string) ([]normalize.ProductRow, error) {
	if len(records) < 2 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "arquivo sem linhas de dados")
	}

	fields := make(map[int]string)
	for idx, header := range records[0] {
		key := strings.ToLower(strings.TrimSpace(header))
		if field, ok := snapshotColumns[key]; ok {
			fields[idx] = field
		}
	}
	if !hasField(fields, "id") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coluna de código do produto não encontrada")
	}

	rows := make([]normalize.ProductRow, 0, len(records)-1)
	for _, record := range records[1:] {
		var row normalize.ProductRow
		for idx, field := range fields {
			if idx >= len(record) {
				continue
			}
			value := strings.TrimSpace(record[idx])
			switch field {
			case "id":
				row.ID = value
			case "name":
				row.Name = value
			case "brand":
				row.Brand = value
			case "ce":
				row.StockCE = coerceInt(value)
			case "sc":
				row.StockSC = coerceInt(value)
			case "sp":
				row.StockSP = coerceInt(value)
			case "reserved":
				row.Reserved = coerceInt(value)
			case "observations":
				if value != "" {
					obs := value
					row.Observations = &obs
				}
			}
		}
		if row.ID == "" {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func hasField(fields map[int]string, name string) bool {
	for _, field := range fields {
		if field == name {
			return true
		}
	}
	return false
}

// coerceInt tolerates the float-formatted integers spreadsheet exports
// produce ("10.0"); anything unparseable coerces to zero.
func coerceInt(value string) int {
	if value == "" {
		return 0
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", "."), 64); err == nil {
		return int(f)
	}
	return 0
}
