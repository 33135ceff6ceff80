package report

import (
	"html/template"
	"io"
	"strings"

	"github.com/worklift/worklift/internal/errors"
)

// BrowseURL returns the Jira browse link for an issue key.
func (data *Data) BrowseURL(key string) string {
	return strings.TrimSuffix(data.JiraURL, "/") + "/browse/" + key
}

type bucketSection struct {
	Title   string
	Buckets []BucketStat
}

// Sections lists the bucket breakdowns of the HTML report in render order.
func (data *Data) Sections() []bucketSection {
	return []bucketSection{
		{Title: "Month", Buckets: data.Stats.Months},
		{Title: "Product Item", Buckets: data.Stats.ProductItems},
		{Title: "Component", Buckets: data.Stats.Components},
		{Title: "Label", Buckets: data.Stats.Labels},
		{Title: "Team", Buckets: data.Stats.Teams},
	}
}

// WriteHTML renders the standalone HTML report.
func WriteHTML(w io.Writer, data *Data) error {
	if data.Stats == nil {
		data.Stats = Aggregate(data.Entries)
	}

	return errors.New(reportTemplate.Execute(w, data))
}

var reportTemplate = template.Must(template.New("worklog-report").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(reportHTML))

const reportHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Project}} Worklog Report</title>
<style>
  body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; margin: 2rem auto; max-width: 1100px; padding: 0 1rem; color: #172b4d; }
  h1 { border-bottom: 2px solid #0052cc; padding-bottom: .3rem; }
  .meta { color: #6b778c; font-size: .9rem; }
  .cards { display: flex; gap: 1rem; flex-wrap: wrap; margin: 1.5rem 0; }
  .card { background: #f4f5f7; border-radius: 6px; padding: 1rem 1.5rem; min-width: 9rem; }
  .card .value { font-size: 1.6rem; font-weight: 600; color: #0052cc; }
  .card .label { color: #6b778c; font-size: .85rem; }
  table { border-collapse: collapse; width: 100%; margin: .75rem 0 2rem; font-size: .92rem; }
  th, td { text-align: left; padding: .4rem .6rem; border-bottom: 1px solid #dfe1e6; }
  th { background: #f4f5f7; }
  td.num, th.num { text-align: right; }
  .bar { background: #dfe1e6; border-radius: 3px; height: .75rem; min-width: 8rem; }
  .bar span { background: #0052cc; border-radius: 3px; display: block; height: 100%; }
  .failures td { color: #bf2600; }
  footer { color: #6b778c; font-size: .85rem; border-top: 1px solid #dfe1e6; padding-top: .75rem; }
  a { color: #0052cc; text-decoration: none; }
</style>
</head>
<body>
<h1>{{.Project}} Worklog Report</h1>
<p class="meta">Generated {{.GeneratedAt.Format "2006-01-02 15:04:05"}} &middot; Activity {{.Activity}} &middot; {{.JiraURL}}</p>

<div class="cards">
  <div class="card"><div class="value">{{printf "%.2f" .Stats.TotalHours}}</div><div class="label">Hours logged</div></div>
  <div class="card"><div class="value">{{.Stats.TotalEntries}}</div><div class="label">Worklog entries</div></div>
  <div class="card"><div class="value">{{len .Stats.Issues}}</div><div class="label">Issues</div></div>
  <div class="card"><div class="value">{{len .Stats.Authors}}</div><div class="label">Authors</div></div>
</div>

<h2>Hours by Author</h2>
<table>
<tr><th>Author</th><th class="num">Hours</th><th class="num">Entries</th><th>Share</th></tr>
{{range .Stats.Authors}}<tr>
<td>{{.Name}}</td><td class="num">{{printf "%.2f" .Hours}}</td><td class="num">{{.Entries}}</td>
<td><div class="bar"><span style="width: {{printf "%.1f" ($.Stats.Percent .Hours)}}%"></span></div></td>
</tr>
{{end}}</table>

{{range .Sections}}{{if .Buckets}}<h2>Hours by {{.Title}}</h2>
<table>
<tr><th>{{.Title}}</th><th class="num">Hours</th><th class="num">Entries</th><th class="num">Issues</th><th>Share</th></tr>
{{range .Buckets}}<tr>
<td>{{.Name}}</td><td class="num">{{printf "%.2f" .Hours}}</td><td class="num">{{.Entries}}</td><td class="num">{{.Issues}}</td>
<td><div class="bar"><span style="width: {{printf "%.1f" ($.Stats.Percent .Hours)}}%"></span></div></td>
</tr>
{{end}}</table>
{{end}}{{end}}

<h2>Issues</h2>
<table>
<tr><th>Key</th><th>Type</th><th>Summary</th><th>Epic</th><th class="num">Hours</th><th class="num">Entries</th><th>Authors</th></tr>
{{range .Stats.Issues}}<tr>
<td><a href="{{$.BrowseURL .Key}}">{{.Key}}</a></td><td>{{.IssueType}}</td><td>{{.Summary}}</td><td>{{.EpicLink}}</td>
<td class="num">{{printf "%.2f" .Hours}}</td><td class="num">{{.Entries}}</td><td>{{join .Authors ", "}}</td>
</tr>
{{end}}</table>

{{if .Failures}}<h2>Skipped Issues</h2>
<table class="failures">
<tr><th>Key</th><th>Stage</th><th>Reason</th></tr>
{{range .Failures}}<tr><td>{{.Key}}</td><td>{{.Stage}}</td><td>{{.Reason}}</td></tr>
{{end}}</table>
{{end}}

<footer>
Collected in {{printf "%.2fs" .Timing.Collection.Seconds}}, extracted in {{printf "%.2fs" .Timing.Extraction.Seconds}}, finished in {{printf "%.2fs" .Timing.Total.Seconds}}.
</footer>
</body>
</html>
`
