package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/worklift/worklift/internal/errors"
)

const (
	summaryTitle    = "SUMMARY REPORT"
	summaryWidth    = 60
	authorNameWidth = 30
)

// WriteSummary writes the terminal summary block: totals first, then the
// per-author breakdown with the heaviest loggers on top.
func WriteSummary(w io.Writer, stats *Stats, colorizer *Colorizer) error {
	if colorizer == nil {
		colorizer = NewColorizer(false)
	}

	bar := strings.Repeat("=", summaryWidth)

	if _, err := fmt.Fprintf(w, "\n%s\n%s\n%s\n", bar, colorizer.titleColorizer(summaryTitle), bar); err != nil {
		return errors.New(err)
	}

	totalHours := colorizer.totalColorizer(fmt.Sprintf("%.2f", stats.TotalHours))

	if _, err := fmt.Fprintf(w, "Total hours logged: %s\n", totalHours); err != nil {
		return errors.New(err)
	}

	if _, err := fmt.Fprintf(w, "Total worklog entries: %d\n", stats.TotalEntries); err != nil {
		return errors.New(err)
	}

	if _, err := fmt.Fprintf(w, "\nBreakdown by author:\n%s\n", strings.Repeat("-", summaryWidth)); err != nil {
		return errors.New(err)
	}

	for _, author := range stats.Authors {
		// Color would throw off the fixed-width padding, so author rows stay plain.
		if _, err := fmt.Fprintf(w, "%-*s %8.2f hours  (%d entries)\n", authorNameWidth, author.Name, author.Hours, author.Entries); err != nil {
			return errors.New(err)
		}
	}

	return nil
}
