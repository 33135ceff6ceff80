// Package report renders export artifacts from extracted worklog entries:
// the CSV export, the standalone HTML report and the terminal summary.
package report

import (
	"strings"
	"time"

	"github.com/worklift/worklift/internal/errors"
	"github.com/worklift/worklift/internal/worklog"
)

// Format selects which artifacts an export produces.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatHTML Format = "html"
	FormatBoth Format = "both"
)

// ParseFormat parses a format flag value.
func ParseFormat(value string) (Format, error) {
	switch format := Format(strings.ToLower(value)); format {
	case FormatCSV, FormatHTML, FormatBoth:
		return format, nil
	default:
		return "", errors.Errorf("unsupported format %q, must be one of: csv, html, both", value)
	}
}

// Failure is an issue excluded from the export, with the stage that failed
// and a display-ready reason.
type Failure struct {
	Key    string
	Stage  string
	Reason string
}

// Timing captures phase durations for the report footer.
type Timing struct {
	Collection time.Duration
	Extraction time.Duration
	Total      time.Duration
}

// Data is everything the writers need to render one export.
type Data struct {
	Project     string
	JiraURL     string
	Activity    string
	GeneratedAt time.Time
	Entries     []worklog.Entry
	Stats       *Stats
	Failures    []Failure
	Timing      Timing
}
