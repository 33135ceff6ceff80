package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/worklift/worklift/internal/errors"
	"github.com/worklift/worklift/internal/worklog"
)

// Columns is the export column order. Downstream spreadsheets key on these
// names, so treat the set and the order as a compatibility contract.
var Columns = []string{
	"issue_key",
	"summary",
	"issue_type",
	"epic_link",
	"author",
	"author_email",
	"time_spent",
	"time_spent_hours",
	"started",
	"comment",
}

// WriteCSV writes the entries to a writer in CSV format, one row per worklog.
func WriteCSV(w io.Writer, entries []worklog.Entry) error {
	csvWriter := csv.NewWriter(w)

	if err := csvWriter.Write(Columns); err != nil {
		return errors.New(err)
	}

	for _, entry := range entries {
		row := []string{
			entry.IssueKey,
			entry.Summary,
			entry.IssueType,
			entry.EpicLink,
			entry.Author,
			entry.AuthorEmail,
			entry.TimeSpent,
			fmt.Sprintf("%.2f", entry.Hours()),
			entry.Started,
			entry.Comment,
		}

		if err := csvWriter.Write(row); err != nil {
			return errors.New(err)
		}
	}

	csvWriter.Flush()

	return errors.New(csvWriter.Error())
}
