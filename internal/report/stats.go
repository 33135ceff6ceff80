package report

import (
	"sort"

	"github.com/worklift/worklift/internal/worklog"
)

// AuthorStat accumulates logged time for one author.
type AuthorStat struct {
	Name    string
	Hours   float64
	Entries int
}

// IssueStat accumulates logged time for one issue.
type IssueStat struct {
	Key       string
	Summary   string
	IssueType string
	EpicLink  string
	Hours     float64
	Entries   int
	Authors   []string
}

// BucketStat accumulates logged time for one grouping value: a month, product
// item, component, label or team.
type BucketStat struct {
	Name    string
	Hours   float64
	Entries int
	Issues  int
}

// Stats is the aggregate view over a set of entries, feeding the text summary
// and the HTML report. All hour-descending slices break ties by name so the
// output is stable.
type Stats struct {
	TotalHours   float64
	TotalEntries int
	Authors      []AuthorStat
	Issues       []IssueStat
	Months       []BucketStat
	ProductItems []BucketStat
	Components   []BucketStat
	Labels       []BucketStat
	Teams        []BucketStat
}

// Percent returns the share of the total logged time, used for bar widths.
func (stats *Stats) Percent(hours float64) float64 {
	if stats.TotalHours == 0 {
		return 0
	}

	return hours / stats.TotalHours * 100
}

type issueAgg struct {
	stat    IssueStat
	authors map[string]bool
}

type bucketAgg struct {
	stat   BucketStat
	issues map[string]bool
}

type bucketMap map[string]*bucketAgg

func (buckets bucketMap) bump(name, issueKey string, hours float64) {
	bucket, ok := buckets[name]
	if !ok {
		bucket = &bucketAgg{stat: BucketStat{Name: name}, issues: make(map[string]bool)}
		buckets[name] = bucket
	}

	bucket.stat.Hours += hours
	bucket.stat.Entries++
	bucket.issues[issueKey] = true
}

func (buckets bucketMap) flatten(chronological bool) []BucketStat {
	out := make([]BucketStat, 0, len(buckets))

	for _, bucket := range buckets {
		stat := bucket.stat
		stat.Issues = len(bucket.issues)

		out = append(out, stat)
	}

	if chronological {
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

		return out
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Hours != out[j].Hours {
			return out[i].Hours > out[j].Hours
		}

		return out[i].Name < out[j].Name
	})

	return out
}

// Aggregate folds the entries into the report groupings. Entries without a
// product item, team, component or label land in the None bucket; entries
// without a parsable start date are skipped by the month grouping only.
func Aggregate(entries []worklog.Entry) *Stats {
	stats := new(Stats)

	authors := make(map[string]*AuthorStat)
	issues := make(map[string]*issueAgg)
	months := make(bucketMap)
	productItems := make(bucketMap)
	components := make(bucketMap)
	labels := make(bucketMap)
	teams := make(bucketMap)

	for _, entry := range entries {
		hours := entry.Hours()

		stats.TotalHours += hours
		stats.TotalEntries++

		author, ok := authors[entry.Author]
		if !ok {
			author = &AuthorStat{Name: entry.Author}
			authors[entry.Author] = author
		}

		author.Hours += hours
		author.Entries++

		issue, ok := issues[entry.IssueKey]
		if !ok {
			issue = &issueAgg{
				stat: IssueStat{
					Key:       entry.IssueKey,
					Summary:   entry.Summary,
					IssueType: entry.IssueType,
					EpicLink:  entry.EpicLink,
				},
				authors: make(map[string]bool),
			}
			issues[entry.IssueKey] = issue
		}

		issue.stat.Hours += hours
		issue.stat.Entries++
		issue.authors[entry.Author] = true

		// Started looks like 2024-03-15T10:30:00.000+0000; the first seven
		// characters are the year-month.
		if len(entry.Started) >= 7 {
			months.bump(entry.Started[:7], entry.IssueKey, hours)
		}

		productItems.bump(orNone(entry.ProductItem), entry.IssueKey, hours)
		teams.bump(orNone(entry.Team), entry.IssueKey, hours)

		if len(entry.Components) == 0 {
			components.bump("None", entry.IssueKey, hours)
		} else {
			for _, component := range entry.Components {
				components.bump(component, entry.IssueKey, hours)
			}
		}

		if len(entry.Labels) == 0 {
			labels.bump("None", entry.IssueKey, hours)
		} else {
			for _, label := range entry.Labels {
				labels.bump(label, entry.IssueKey, hours)
			}
		}
	}

	stats.Authors = make([]AuthorStat, 0, len(authors))
	for _, author := range authors {
		stats.Authors = append(stats.Authors, *author)
	}

	sort.Slice(stats.Authors, func(i, j int) bool {
		if stats.Authors[i].Hours != stats.Authors[j].Hours {
			return stats.Authors[i].Hours > stats.Authors[j].Hours
		}

		return stats.Authors[i].Name < stats.Authors[j].Name
	})

	stats.Issues = make([]IssueStat, 0, len(issues))
	for _, issue := range issues {
		stat := issue.stat
		stat.Authors = sortedKeys(issue.authors)

		stats.Issues = append(stats.Issues, stat)
	}

	sort.Slice(stats.Issues, func(i, j int) bool {
		if stats.Issues[i].Hours != stats.Issues[j].Hours {
			return stats.Issues[i].Hours > stats.Issues[j].Hours
		}

		return stats.Issues[i].Key < stats.Issues[j].Key
	})

	stats.Months = months.flatten(true)
	stats.ProductItems = productItems.flatten(false)
	stats.Components = components.flatten(false)
	stats.Labels = labels.flatten(false)
	stats.Teams = teams.flatten(false)

	return stats
}

func orNone(value string) string {
	if value == "" {
		return "None"
	}

	return value
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))

	for key := range set {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
