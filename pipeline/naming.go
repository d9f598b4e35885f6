package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// DefaultArtifactName is used when no order date resolved.
const DefaultArtifactName = "ebay_orders.xlsx"

// ArtifactName derives the output file name from the resolved sale dates and
// the run time: Orders_<MM-DD-YY>_to_<MM-DD-YY>_Run<HHMM>.xlsx.
func ArtifactName(dates []time.Time, now time.Time) string {
	summary := Summarize(dates)
	if summary.Count == 0 {
		return DefaultArtifactName
	}
	return fmt.Sprintf("Orders_%s_to_%s_Run%s.xlsx",
		summary.Start.Format("01-02-06"),
		summary.End.Format("01-02-06"),
		now.Format("1504"),
	)
}

// WithExtension swaps the artifact extension for non-spreadsheet formats.
func WithExtension(name, format string) string {
	ext := ""
	switch format {
	case "csv":
		ext = ".csv"
	case "json":
		ext = ".jsonl"
	default:
		return name
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + ext
}
