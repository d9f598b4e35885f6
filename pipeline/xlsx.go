package pipeline

import (
	"fmt"
	"os"
	"sync"

	"github.com/aluiziolira/go-scrape-orders/models"
	"github.com/tealeg/xlsx/v2"
)

// DefaultSheetName is the worksheet the orders are written to.
const DefaultSheetName = "eBay Orders"

// XLSXWriter writes records to a single worksheet. The workbook is held in
// memory and saved on Close.
type XLSXWriter struct {
	path  string
	file  *xlsx.File
	sheet *xlsx.Sheet
	rows  int
	saved bool
	mu    sync.Mutex
}

// NewXLSXWriter creates a workbook with one sheet and writes the header row.
func NewXLSXWriter(filename, sheetName string) (*XLSXWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}
	if sheetName == "" {
		sheetName = DefaultSheetName
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("add xlsx sheet %q: %w", sheetName, err)
	}
	addRow(sheet, models.OrderColumns)

	return &XLSXWriter{
		path:  filename,
		file:  f,
		sheet: sheet,
	}, nil
}

// Write appends one row per record in column order.
func (xw *XLSXWriter) Write(records []models.OrderRecord) error {
	xw.mu.Lock()
	defer xw.mu.Unlock()

	if xw.saved {
		return fmt.Errorf("xlsx writer already closed")
	}
	for _, rec := range records {
		addRow(xw.sheet, rec.Values())
		xw.rows++
	}
	return nil
}

// Close saves the workbook. Subsequent calls are no-ops.
func (xw *XLSXWriter) Close() error {
	xw.mu.Lock()
	defer xw.mu.Unlock()

	if xw.saved {
		return nil
	}
	if err := xw.file.Save(xw.path); err != nil {
		return fmt.Errorf("save xlsx file: %w", err)
	}
	xw.saved = true
	return nil
}

// Discard drops the in-memory workbook, removing the file if Close already
// saved it. The writer cannot be used afterwards.
func (xw *XLSXWriter) Discard() error {
	xw.mu.Lock()
	defer xw.mu.Unlock()

	if xw.saved {
		if err := os.Remove(xw.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove xlsx file: %w", err)
		}
	}
	xw.saved = true
	xw.rows = 0
	return nil
}

// Validate ensures the saved workbook exists and holds data rows.
func (xw *XLSXWriter) Validate() error {
	xw.mu.Lock()
	defer xw.mu.Unlock()

	if !xw.saved {
		return fmt.Errorf("xlsx file not saved")
	}
	info, err := os.Stat(xw.path)
	if err != nil {
		return fmt.Errorf("stat xlsx file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("xlsx file is empty")
	}
	if xw.rows == 0 {
		return fmt.Errorf("xlsx sheet has no data rows")
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}
