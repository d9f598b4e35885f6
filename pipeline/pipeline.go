package pipeline

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/aluiziolira/go-scrape-orders/models"
)

// ErrNoRecords is returned when a run produced nothing to persist.
var ErrNoRecords = errors.New("pipeline: no records")

// OutputWriter defines the interface for data output.
type OutputWriter interface {
	Write(records []models.OrderRecord) error
	Close() error
	Validate() error
	// Discard releases the writer and removes anything it already put on
	// disk. It is used instead of Close when there is nothing to persist.
	Discard() error
}

// Accumulator is the fold state of a run: records in processing order plus the
// sort keys of every record whose date resolved. Add never mutates the
// receiver, so each step can be tested in isolation.
type Accumulator struct {
	records  []models.OrderRecord
	sortKeys []int64
}

// Add returns a new accumulator with rec appended.
func (a Accumulator) Add(rec models.OrderRecord) Accumulator {
	next := Accumulator{
		records:  append(slices.Clip(a.records), rec),
		sortKeys: slices.Clip(a.sortKeys),
	}
	if rec.SortTimestamp != nil {
		next.sortKeys = append(next.sortKeys, *rec.SortTimestamp)
	}
	return next
}

// Len returns the number of accumulated records.
func (a Accumulator) Len() int {
	return len(a.records)
}

// Records returns copies of the accumulated records with the transient sort key
// stripped, ready for a sink.
func (a Accumulator) Records() []models.OrderRecord {
	out := make([]models.OrderRecord, len(a.records))
	for i, rec := range a.records {
		rec.SortTimestamp = nil
		out[i] = rec
	}
	return out
}

// Dates returns the resolved sale dates in ascending order.
func (a Accumulator) Dates(loc *time.Location) []time.Time {
	if loc == nil {
		loc = time.UTC
	}
	keys := slices.Clone(a.sortKeys)
	slices.Sort(keys)
	dates := make([]time.Time, len(keys))
	for i, k := range keys {
		dates[i] = time.UnixMilli(k).In(loc)
	}
	return dates
}

// Summary reports the covered date range.
func (a Accumulator) Summary(loc *time.Location) models.RunSummary {
	return Summarize(a.Dates(loc))
}

// Summarize returns the min and max of dates. A zero summary means none resolved.
func Summarize(dates []time.Time) models.RunSummary {
	if len(dates) == 0 {
		return models.RunSummary{}
	}
	summary := models.RunSummary{Start: dates[0], End: dates[0], Count: len(dates)}
	for _, d := range dates[1:] {
		if d.Before(summary.Start) {
			summary.Start = d
		}
		if d.After(summary.End) {
			summary.End = d
		}
	}
	return summary
}

// Flush writes records to w, closes it and validates the output. An empty
// batch discards the writer so no header-only file is left behind.
func Flush(w OutputWriter, records []models.OrderRecord) error {
	if len(records) == 0 {
		if err := w.Discard(); err != nil {
			return fmt.Errorf("discard writer: %w", err)
		}
		return ErrNoRecords
	}
	if err := w.Write(records); err != nil {
		_ = w.Close()
		return fmt.Errorf("write records: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close writer: %w", err)
	}
	if err := w.Validate(); err != nil {
		return fmt.Errorf("validate output: %w", err)
	}
	return nil
}
