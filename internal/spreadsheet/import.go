package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"autoassist/internal/domain"
	"autoassist/internal/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Import columns. name and quantity are required; the rest are optional and
// matched by header name in any order.
const (
	colName        = "name"
	colCategory    = "category"
	colQuantity    = "quantity"
	colPrice       = "price"
	colMinStock    = "min_stock"
	colDescription = "description"
	colReason      = "reason"
)

var zipMagic = []byte("PK\x03\x04")

// ReadRecords parses an import file. XLSX is detected by its zip signature,
// anything else is read as CSV. At most limit data rows are accepted.
func ReadRecords(data []byte, limit int) ([]models.ImportRecord, error) {
	if bytes.HasPrefix(data, zipMagic) {
		return ReadXLSX(bytes.NewReader(data), limit)
	}
	return ReadCSV(bytes.NewReader(data), limit)
}

func ReadCSV(r io.Reader, limit int) ([]models.ImportRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, domain.Validation("csv line %d: %v", parseErr.Line, parseErr.Err)
		}
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return parseRows(rows, limit)
}

func ReadXLSX(r io.Reader, limit int) ([]models.ImportRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, domain.Validation("not a readable xlsx file: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, domain.Validation("xlsx file has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return parseRows(rows, limit)
}

func parseRows(rows [][]string, limit int) ([]models.ImportRecord, error) {
	if len(rows) == 0 {
		return nil, domain.Validation("import file is empty")
	}

	columns := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, required := range []string{colName, colQuantity} {
		if _, ok := columns[required]; !ok {
			return nil, domain.Validation("import header must contain %q", required)
		}
	}

	data := rows[1:]
	if limit > 0 && len(data) > limit {
		return nil, domain.Validation("import has %d rows, the limit is %d", len(data), limit)
	}

	records := make([]models.ImportRecord, 0, len(data))
	for i, row := range data {
		line := i + 2
		cell := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}
		if isBlank(row) {
			continue
		}

		rec := models.ImportRecord{
			Name:        cell(colName),
			Category:    cell(colCategory),
			Description: cell(colDescription),
			Reason:      cell(colReason),
		}

		qty, err := strconv.ParseInt(cell(colQuantity), 10, 64)
		if err != nil {
			return nil, domain.Validation("line %d: invalid quantity %q", line, cell(colQuantity))
		}
		rec.Delta = qty

		if raw := cell(colPrice); raw != "" {
			price, err := decimal.NewFromString(raw)
			if err != nil {
				return nil, domain.Validation("line %d: invalid price %q", line, raw)
			}
			rec.UnitCost = &price
		}
		if raw := cell(colMinStock); raw != "" {
			minStock, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, domain.Validation("line %d: invalid min_stock %q", line, raw)
			}
			rec.Threshold = &minStock
		}

		records = append(records, rec)
	}
	return records, nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
