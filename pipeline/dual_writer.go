// Package pipeline folds extracted orders into a run and persists them to
// spreadsheet, CSV and JSON sinks.
package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/aluiziolira/go-scrape-orders/models"
)

// DualWriter outputs to both XLSX and JSON formats simultaneously
type DualWriter struct {
	xlsxWriter *XLSXWriter
	jsonWriter *JSONWriter
	mu         sync.Mutex
}

// NewDualWriter creates a new dual writer for both spreadsheet and JSON output
func NewDualWriter(xlsxFilename, sheetName, jsonFilename string) (*DualWriter, error) {
	xlsxWriter, err := NewXLSXWriter(xlsxFilename, sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create XLSX writer: %w", err)
	}

	jsonWriter, err := NewJSONWriter(jsonFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to create JSON writer: %w", err)
	}

	return &DualWriter{
		xlsxWriter: xlsxWriter,
		jsonWriter: jsonWriter,
	}, nil
}

// Write writes records to both formats
func (dw *DualWriter) Write(records []models.OrderRecord) error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if err := dw.xlsxWriter.Write(records); err != nil {
		return fmt.Errorf("XLSX write failed: %w", err)
	}

	// JSONL alongside the workbook
	if err := dw.jsonWriter.Write(records); err != nil {
		return fmt.Errorf("JSON write failed: %w", err)
	}

	return nil
}

// Close closes both writers
func (dw *DualWriter) Close() error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	var errs []error

	if err := dw.xlsxWriter.Close(); err != nil {
		errs = append(errs, fmt.Errorf("XLSX close failed: %w", err))
	}

	if err := dw.jsonWriter.Close(); err != nil {
		errs = append(errs, fmt.Errorf("JSON close failed: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors: %v", errs)
	}

	return nil
}

// Discard discards both writers
func (dw *DualWriter) Discard() error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	return errors.Join(dw.xlsxWriter.Discard(), dw.jsonWriter.Discard())
}

// Validate validates both output files
func (dw *DualWriter) Validate() error {
	var errs []error

	if err := dw.xlsxWriter.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("XLSX validation failed: %w", err))
	}

	if err := dw.jsonWriter.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("JSON validation failed: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation errors: %v", errs)
	}

	return nil
}

// NewWriter builds the sink for format in dir and returns it with the primary
// output path.
func NewWriter(format, dir, name, sheetName string) (OutputWriter, string, error) {
	path := filepath.Join(dir, WithExtension(name, format))

	var (
		writer OutputWriter
		err    error
	)
	switch format {
	case "xlsx":
		writer, err = NewXLSXWriter(path, sheetName)
	case "csv":
		writer, err = NewCSVWriter(path)
	case "json":
		writer, err = NewJSONWriter(path)
	case "dual":
		writer, err = NewDualWriter(path, sheetName, filepath.Join(dir, WithExtension(name, "json")))
	default:
		return nil, "", fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return nil, "", err
	}
	return writer, path, nil
}
