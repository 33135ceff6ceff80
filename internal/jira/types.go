// Package jira implements the subset of the Jira REST API v2 the extractor
// talks to: JQL search, issue lookup, worklog pages and server info.
package jira

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/worklift/worklift/internal/errors"
)

// Custom field identifiers as provisioned on the Jira instance this tool grew
// up against.
const (
	EpicLinkFieldID    = "customfield_10014"
	ProductItemFieldID = "customfield_11440"
	TeamFieldID        = "customfield_10076"
	TargetStartFieldID = "customfield_11200"
	TargetEndFieldID   = "customfield_11201"
)

// ActivityFieldName is the display name of the activity custom field the seed
// query matches against.
const ActivityFieldName = "ERP Activity"

const startedLayout = "2006-01-02T15:04:05.000-0700"

// SearchResult is one page of a JQL search response.
type SearchResult struct {
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
	Total      int     `json:"total"`
	Issues     []Issue `json:"issues"`
}

// Issue is a single issue as returned by search and issue endpoints. Only the
// requested fields are populated.
type Issue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Fields IssueFields `json:"fields"`
}

// IssueFields carries the issue fields the extractor ever requests. The custom
// fields are kept loosely typed since Jira returns objects, bare strings or
// null for them depending on the field configuration.
type IssueFields struct {
	Summary     string      `json:"summary"`
	IssueType   IssueType   `json:"issuetype"`
	Status      Status      `json:"status"`
	Components  []Component `json:"components"`
	Labels      []string    `json:"labels"`
	IssueLinks  []IssueLink `json:"issuelinks"`
	Subtasks    []IssueRef  `json:"subtasks"`
	Parent      *IssueRef   `json:"parent"`
	Created     string      `json:"created"`
	Updated     string      `json:"updated"`
	DueDate     string      `json:"duedate"`
	EpicLink    string      `json:"customfield_10014"`
	ProductItem any         `json:"customfield_11440"`
	Team        any         `json:"customfield_10076"`
	TargetStart string      `json:"customfield_11200"`
	TargetEnd   string      `json:"customfield_11201"`
}

// IssueType identifies the type of an issue, like Story, Epic or Sub-task.
type IssueType struct {
	Name    string `json:"name"`
	Subtask bool   `json:"subtask"`
}

// Status is the workflow status of an issue.
type Status struct {
	Name string `json:"name"`
}

// Component is a project component an issue is assigned to.
type Component struct {
	Name string `json:"name"`
}

// IssueRef is a key-only reference to another issue, used in links and sub-task lists.
type IssueRef struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

// IssueLink connects two issues. Exactly one of OutwardIssue and InwardIssue is
// set depending on the link direction as seen from the queried issue.
type IssueLink struct {
	Type         LinkType  `json:"type"`
	OutwardIssue *IssueRef `json:"outwardIssue,omitempty"`
	InwardIssue  *IssueRef `json:"inwardIssue,omitempty"`
}

// LinkType names a link relation in both directions.
type LinkType struct {
	Name    string `json:"name"`
	Inward  string `json:"inward"`
	Outward string `json:"outward"`
}

// IsEpic returns true when the issue type is Epic.
func (issue Issue) IsEpic() bool {
	return issue.Fields.IssueType.Name == "Epic"
}

// LinkedKeys returns the keys of all issues linked to this one, outward and
// inward, in the order the server listed them.
func (issue Issue) LinkedKeys() []string {
	var keys []string

	for _, link := range issue.Fields.IssueLinks {
		if link.OutwardIssue != nil {
			keys = append(keys, link.OutwardIssue.Key)
		}

		if link.InwardIssue != nil {
			keys = append(keys, link.InwardIssue.Key)
		}
	}

	return keys
}

// SubtaskKeys returns the keys of this issue's sub-tasks.
func (issue Issue) SubtaskKeys() []string {
	keys := make([]string, 0, len(issue.Fields.Subtasks))

	for _, subtask := range issue.Fields.Subtasks {
		keys = append(keys, subtask.Key)
	}

	return keys
}

// Metadata is the projection of issue fields carried alongside every worklog
// row in reports.
type Metadata struct {
	Key         string   `json:"key"`
	Summary     string   `json:"summary"`
	IssueType   string   `json:"issue_type"`
	EpicLink    string   `json:"epic_link"`
	Parent      string   `json:"parent"`
	Components  []string `json:"components"`
	Labels      []string `json:"labels"`
	ProductItem string   `json:"product_item"`
	Team        string   `json:"team"`
	Created     string   `json:"created"`
	Updated     string   `json:"updated"`
	DueDate     string   `json:"due_date"`
	TargetStart string   `json:"target_start"`
	TargetEnd   string   `json:"target_end"`
}

// Metadata projects the fetched fields into the report shape, applying the
// fallbacks reports rely on: Unknown issue type, None product item and team.
func (issue Issue) Metadata() Metadata {
	fields := issue.Fields

	issueType := fields.IssueType.Name
	if issueType == "" {
		issueType = "Unknown"
	}

	components := make([]string, 0, len(fields.Components))

	for _, component := range fields.Components {
		if component.Name != "" {
			components = append(components, component.Name)
		}
	}

	productItem := decodeOption(fields.ProductItem, false)
	if productItem == "" {
		productItem = "None"
	}

	team := decodeOption(fields.Team, true)
	if team == "" {
		team = "None"
	}

	var parent string
	if fields.Parent != nil {
		parent = fields.Parent.Key
	}

	return Metadata{
		Key:         issue.Key,
		Summary:     fields.Summary,
		IssueType:   issueType,
		EpicLink:    fields.EpicLink,
		Parent:      parent,
		Components:  components,
		Labels:      fields.Labels,
		ProductItem: productItem,
		Team:        team,
		Created:     fields.Created,
		Updated:     fields.Updated,
		DueDate:     fields.DueDate,
		TargetStart: fields.TargetStart,
		TargetEnd:   fields.TargetEnd,
	}
}

// WorklogPage is one page of the issue worklog endpoint response.
type WorklogPage struct {
	StartAt    int       `json:"startAt"`
	MaxResults int       `json:"maxResults"`
	Total      int       `json:"total"`
	Worklogs   []Worklog `json:"worklogs"`
}

// Worklog is a single logged work entry on an issue.
type Worklog struct {
	ID               string `json:"id"`
	Author           Author `json:"author"`
	TimeSpent        string `json:"timeSpent"`
	TimeSpentSeconds int64  `json:"timeSpentSeconds"`
	Started          string `json:"started"`
	Comment          any    `json:"comment"`
}

// Author identifies who logged the work.
type Author struct {
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
}

// AuthorName returns the author display name, or Unknown when Jira returns none.
func (worklog Worklog) AuthorName() string {
	if worklog.Author.DisplayName == "" {
		return "Unknown"
	}

	return worklog.Author.DisplayName
}

// CommentText flattens the worklog comment to plain text.
func (worklog Worklog) CommentText() string {
	return FlattenComment(worklog.Comment)
}

// StartedTime parses the worklog start timestamp.
func (worklog Worklog) StartedTime() (time.Time, error) {
	return ParseStarted(worklog.Started)
}

// ParseStarted parses a Jira worklog timestamp like
// 2024-03-08T09:30:00.000+0300.
func ParseStarted(value string) (time.Time, error) {
	started, err := time.Parse(startedLayout, value)
	if err != nil {
		return time.Time{}, errors.New(err)
	}

	return started, nil
}

// ServerInfo is the response of the server info endpoint.
type ServerInfo struct {
	BaseURL        string `json:"baseUrl"`
	Version        string `json:"version"`
	DeploymentType string `json:"deploymentType"`
	ServerTitle    string `json:"serverTitle"`
}

// adfNode is one node of an Atlassian Document Format tree.
type adfNode struct {
	Type    string    `mapstructure:"type"`
	Text    string    `mapstructure:"text"`
	Content []adfNode `mapstructure:"content"`
}

// FlattenComment converts a comment value to plain text. Jira Cloud returns
// comments as Atlassian Document Format trees, Jira Server as plain strings.
// Every text node of the tree is collected, joined with single spaces.
func FlattenComment(comment any) string {
	switch val := comment.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		var doc adfNode
		if err := mapstructure.Decode(comment, &doc); err != nil {
			return fmt.Sprintf("%v", comment)
		}

		var texts []string

		collectText(doc, &texts)

		return strings.Join(texts, " ")
	}
}

func collectText(node adfNode, out *[]string) {
	if node.Type == "text" && node.Text != "" {
		*out = append(*out, node.Text)
	}

	for _, child := range node.Content {
		collectText(child, out)
	}
}

// namedValue is the object shape Jira uses for select-style custom fields.
type namedValue struct {
	Value string `mapstructure:"value"`
	Name  string `mapstructure:"name"`
}

// decodeOption reads a select-style custom field that Jira may return as an
// object, a bare string or null. preferName picks which object property wins.
func decodeOption(raw any, preferName bool) string {
	switch val := raw.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		var opt namedValue
		if err := mapstructure.Decode(raw, &opt); err != nil {
			return fmt.Sprintf("%v", raw)
		}

		if preferName {
			if opt.Name != "" {
				return opt.Name
			}

			return opt.Value
		}

		if opt.Value != "" {
			return opt.Value
		}

		return opt.Name
	}
}
