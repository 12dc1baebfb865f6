package spreadsheet

import (
	"bytes"
	"testing"
	"time"

	"autoassist/internal/domain"
	"autoassist/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadCSV(t *testing.T) {
	data := "name,category,quantity,price,min_stock,description\n" +
		"Engine Oil,Fluids,10,450.50,5,5W-30\n" +
		"\n" +
		"Brake Pads, Brakes ,-2,,,\n"

	records, err := ReadRecords([]byte(data), 100)
	require.NoError(t, err)
	require.Len(t, records, 2)

	oil := records[0]
	assert.Equal(t, "Engine Oil", oil.Name)
	assert.Equal(t, "Fluids", oil.Category)
	assert.Equal(t, int64(10), oil.Delta)
	require.NotNil(t, oil.UnitCost)
	assert.True(t, decimal.RequireFromString("450.5").Equal(*oil.UnitCost))
	require.NotNil(t, oil.Threshold)
	assert.Equal(t, int64(5), *oil.Threshold)
	assert.Equal(t, "5W-30", oil.Description)

	pads := records[1]
	assert.Equal(t, "Brakes", pads.Category)
	assert.Equal(t, int64(-2), pads.Delta)
	assert.Nil(t, pads.UnitCost)
	assert.Nil(t, pads.Threshold)
}

func TestReadCSV_HeaderOrderAndReason(t *testing.T) {
	data := "quantity,reason,name\n3,correction,Coolant\n"
	records, err := ReadCSV(bytes.NewBufferString(data), 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Coolant", records[0].Name)
	assert.Equal(t, "correction", records[0].Reason)
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"missing quantity column", "name,category\nOil,Fluids\n"},
		{"bad quantity", "name,quantity\nOil,ten\n"},
		{"bad price", "name,quantity,price\nOil,1,abc\n"},
		{"bad min stock", "name,quantity,min_stock\nOil,1,x\n"},
		{"too many rows", "name,quantity\nA,1\nB,1\nC,1\n"},
		{"bad quoting", "name,quantity\n\"Oil,1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadRecords([]byte(tt.data), 2)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	rows := [][]interface{}{
		{"name", "category", "quantity", "price", "min_stock"},
		{"Air Filter", "Filters", 4, "300", 2},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	records, err := ReadRecords(buf.Bytes(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Air Filter", records[0].Name)
	assert.Equal(t, int64(4), records[0].Delta)
	assert.Equal(t, int64(2), *records[0].Threshold)
}

func TestReadXLSX_Corrupt(t *testing.T) {
	_, err := ReadRecords(append([]byte("PK\x03\x04"), []byte("garbage")...), 10)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestWriteInventory(t *testing.T) {
	items := []*models.InventoryItem{
		{ID: 1, Name: "Engine Oil", Category: "Fluids", Quantity: 2, Threshold: 5, UnitCost: decimal.RequireFromString("450")},
		{ID: 2, Name: "Spark Plug", Category: "Ignition", Quantity: 40, Threshold: 10, UnitCost: decimal.RequireFromString("120.5")},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteInventory(&buf, items, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetInventory, SheetLowStock}, f.GetSheetList())

	all, err := f.GetRows(SheetInventory)
	require.NoError(t, err)
	assert.Equal(t, inventoryHeaders, all[0])
	assert.Equal(t, "Engine Oil", all[1][1])
	assert.Equal(t, "Low", all[1][7])
	assert.Equal(t, "OK", all[2][7])

	low, err := f.GetRows(SheetLowStock)
	require.NoError(t, err)
	assert.Equal(t, "Engine Oil", low[1][1])
	assert.Equal(t, "900", low[1][6])
	footer, err := f.GetCellValue(SheetLowStock, "A4")
	require.NoError(t, err)
	assert.Contains(t, footer, "2026-01-02T03:04:05Z")
}
