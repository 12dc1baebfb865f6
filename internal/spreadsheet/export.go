package spreadsheet

import (
	"fmt"
	"io"
	"time"

	"autoassist/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	SheetInventory = "Inventory"
	SheetLowStock  = "Low Stock"
)

var inventoryHeaders = []string{"ID", "Name", "Category", "Quantity", "Min Stock", "Unit Price", "Stock Value", "Status"}

// WriteInventory writes an XLSX workbook with all items and a sheet of the
// items below their threshold.
func WriteInventory(w io.Writer, items []*models.InventoryItem, generatedAt time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetInventory); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetLowStock); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	lowStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FCE4D6"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	var low []*models.InventoryItem
	for _, item := range items {
		if item.LowStock() {
			low = append(low, item)
		}
	}

	for _, sheet := range []struct {
		name  string
		items []*models.InventoryItem
	}{
		{SheetInventory, items},
		{SheetLowStock, low},
	} {
		if err := writeItems(f, sheet.name, sheet.items, headerStyle, lowStyle); err != nil {
			return err
		}
		footer, _ := excelize.CoordinatesToCellName(1, len(sheet.items)+3)
		_ = f.SetCellValue(sheet.name, footer, "Generated "+generatedAt.UTC().Format(time.RFC3339))
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func writeItems(f *excelize.File, sheet string, items []*models.InventoryItem, headerStyle, lowStyle int) error {
	for i, h := range inventoryHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	lastCol, _ := excelize.ColumnNumberToName(len(inventoryHeaders))
	_ = f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle)

	for i, item := range items {
		row := i + 2
		status := "OK"
		if item.LowStock() {
			status = "Low"
		}
		values := []interface{}{
			item.ID,
			item.Name,
			item.Category,
			item.Quantity,
			item.Threshold,
			item.UnitCost.InexactFloat64(),
			item.StockValue().InexactFloat64(),
			status,
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheet, start, &values); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
		if item.LowStock() {
			end, _ := excelize.CoordinatesToCellName(len(inventoryHeaders), row)
			_ = f.SetCellStyle(sheet, start, end, lowStyle)
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 8)
	_ = f.SetColWidth(sheet, "B", "C", 25)
	_ = f.SetColWidth(sheet, "D", lastCol, 14)
	return nil
}
