package worklog

import (
	"time"

	"github.com/worklift/worklift/internal/jira"
)

// Entry is one logged work row joined with the metadata of its issue. The
// json tags double as the CSV column names of the export.
type Entry struct {
	IssueKey         string   `json:"issue_key"`
	IssueType        string   `json:"issue_type"`
	EpicLink         string   `json:"epic_link"`
	Summary          string   `json:"summary"`
	Components       []string `json:"components"`
	Labels           []string `json:"labels"`
	ProductItem      string   `json:"product_item"`
	Team             string   `json:"team"`
	WorklogID        string   `json:"worklog_id"`
	Author           string   `json:"author"`
	AuthorEmail      string   `json:"author_email"`
	TimeSpent        string   `json:"time_spent"`
	TimeSpentSeconds int64    `json:"time_spent_seconds"`
	Started          string   `json:"started"`
	Comment          string   `json:"comment"`
}

func newEntry(metadata jira.Metadata, worklog jira.Worklog) Entry {
	return Entry{
		IssueKey:         metadata.Key,
		IssueType:        metadata.IssueType,
		EpicLink:         metadata.EpicLink,
		Summary:          metadata.Summary,
		Components:       metadata.Components,
		Labels:           metadata.Labels,
		ProductItem:      metadata.ProductItem,
		Team:             metadata.Team,
		WorklogID:        worklog.ID,
		Author:           worklog.AuthorName(),
		AuthorEmail:      worklog.Author.EmailAddress,
		TimeSpent:        worklog.TimeSpent,
		TimeSpentSeconds: worklog.TimeSpentSeconds,
		Started:          worklog.Started,
		Comment:          worklog.CommentText(),
	}
}

// Hours returns the logged time in fractional hours.
func (entry Entry) Hours() float64 {
	return float64(entry.TimeSpentSeconds) / 3600
}

// StartedTime parses the start timestamp of the entry.
func (entry Entry) StartedTime() (time.Time, error) {
	return jira.ParseStarted(entry.Started)
}
