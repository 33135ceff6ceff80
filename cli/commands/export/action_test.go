package export_test

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worklift/worklift/cli/commands/export"
	"github.com/worklift/worklift/options"
)

// jiraStub answers the REST endpoints an export touches. The issue graph it
// serves exercises every traversal stage: ZYN-1 and the epic ZYN-10 match the
// activity, ZYN-2 belongs to the epic, ZYN-1 links to ZYN-3 (and to another
// project, which must be ignored), and ZYN-2 carries the sub-task ZYN-4.
type jiraStub struct {
	searchRequests   atomic.Int32
	metadataRequests atomic.Int32
	worklogRequests  atomic.Int32

	// worklogStatus forces an HTTP status for a key's worklog endpoint.
	worklogStatus map[string]int

	// emptySeed makes the activity query match nothing.
	emptySeed bool

	// seedStatus forces an HTTP status for the activity query.
	seedStatus int
}

func (stub *jiraStub) server(t *testing.T) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.URL.Path == "/rest/api/2/serverInfo":
			fmt.Fprint(w, `{"baseUrl":"https://jira.example.com","version":"9.12.0","deploymentType":"Server"}`)
		case r.URL.Path == "/rest/api/2/search":
			stub.handleSearch(t, w, r)
		case strings.HasSuffix(r.URL.Path, "/worklog"):
			key := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/rest/api/2/issue/"), "/worklog")
			stub.handleWorklogs(w, key)
		case strings.HasPrefix(r.URL.Path, "/rest/api/2/issue/"):
			key := strings.TrimPrefix(r.URL.Path, "/rest/api/2/issue/")
			stub.handleIssue(t, w, key, r.URL.Query().Get("fields"))
		default:
			t.Errorf("unexpected request path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	t.Cleanup(server.Close)

	return server
}

func (stub *jiraStub) handleSearch(t *testing.T, w http.ResponseWriter, r *http.Request) {
	t.Helper()

	jql := r.URL.Query().Get("jql")

	switch {
	case strings.Contains(jql, `"ERP Activity" ~`):
		stub.searchRequests.Add(1)

		if stub.seedStatus != 0 {
			w.WriteHeader(stub.seedStatus)
			return
		}

		if stub.emptySeed {
			fmt.Fprint(w, `{"startAt":0,"maxResults":50,"total":0,"issues":[]}`)
			return
		}

		fmt.Fprint(w, `{"startAt":0,"maxResults":50,"total":2,"issues":[
			{"key":"ZYN-1","fields":{"summary":"Retry queue","issuetype":{"name":"Story"}}},
			{"key":"ZYN-10","fields":{"summary":"Payment Hub rollout","issuetype":{"name":"Epic"}}}]}`)
	case strings.Contains(jql, `"Epic Link" = ZYN-10`):
		stub.searchRequests.Add(1)
		fmt.Fprint(w, `{"startAt":0,"maxResults":50,"total":1,"issues":[
			{"key":"ZYN-2","fields":{"summary":"Ledger sync","issuetype":{"name":"Task"}}}]}`)
	default:
		t.Errorf("unexpected search query %q", jql)
		w.WriteHeader(http.StatusBadRequest)
	}
}

func (stub *jiraStub) handleIssue(t *testing.T, w http.ResponseWriter, key, fields string) {
	t.Helper()

	switch {
	case strings.Contains(fields, "subtasks"):
		if key == "ZYN-2" {
			fmt.Fprintf(w, `{"key":%q,"fields":{"subtasks":[{"key":"ZYN-4"}]}}`, key)
		} else {
			fmt.Fprintf(w, `{"key":%q,"fields":{"subtasks":[]}}`, key)
		}
	case strings.Contains(fields, "issuelinks"):
		if key == "ZYN-1" {
			fmt.Fprintf(w, `{"key":%q,"fields":{"issuelinks":[
				{"type":{"name":"Relates"},"outwardIssue":{"key":"ZYN-3"}},
				{"type":{"name":"Blocks"},"inwardIssue":{"key":"OPS-9"}}]}}`, key)
		} else {
			fmt.Fprintf(w, `{"key":%q,"fields":{"issuelinks":[]}}`, key)
		}
	case strings.Contains(fields, "customfield_11440"):
		stub.metadataRequests.Add(1)
		fmt.Fprintf(w, `{"key":%q,"fields":{"summary":"Work on %s","issuetype":{"name":"Story"},
			"customfield_10014":"ZYN-10","components":[{"name":"payments"}],"labels":["erp"],
			"customfield_11440":{"value":"Billing"},"customfield_10076":{"name":"Core"}}}`, key, key)
	default:
		t.Errorf("unexpected issue fields %q for %s", fields, key)
		w.WriteHeader(http.StatusBadRequest)
	}
}

func (stub *jiraStub) handleWorklogs(w http.ResponseWriter, key string) {
	stub.worklogRequests.Add(1)

	if status, ok := stub.worklogStatus[key]; ok {
		w.WriteHeader(status)
		return
	}

	worklogs := map[string]string{
		"ZYN-1": `{"id":"101","author":{"displayName":"Alice","emailAddress":"alice@example.com"},"timeSpent":"1h","timeSpentSeconds":3600,"started":"2024-03-08T09:30:00.000+0300","comment":"tuning"},
			{"id":"102","author":{"displayName":"Bob"},"timeSpent":"30m","timeSpentSeconds":1800,"started":"2024-03-09T11:00:00.000+0300","comment":{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"pairing"}]}]}}`,
		"ZYN-2": `{"id":"201","author":{"displayName":"Alice","emailAddress":"alice@example.com"},"timeSpent":"1h 30m","timeSpentSeconds":5400,"started":"2024-03-10T14:00:00.000+0300"}`,
		"ZYN-3": `{"id":"301","author":{"displayName":"Carol"},"timeSpent":"15m","timeSpentSeconds":900,"started":"2024-04-01T10:00:00.000+0300"}`,
		"ZYN-4": `{"id":"401","author":{"displayName":"Bob"},"timeSpent":"2h","timeSpentSeconds":7200,"started":"2024-04-02T16:45:00.000+0300"}`,
	}

	rows := worklogs[key]

	count := 0
	if rows != "" {
		count = strings.Count(rows, `"id"`)
	}

	fmt.Fprintf(w, `{"startAt":0,"maxResults":50,"total":%d,"worklogs":[%s]}`, count, rows)
}

func testOptions(t *testing.T, serverURL string) (*options.WorkliftOptions, *bytes.Buffer) {
	t.Helper()

	stdout := new(bytes.Buffer)
	opts := options.NewWorkliftOptionsForTest(stdout, new(bytes.Buffer))
	opts.JiraURL = serverURL
	opts.JiraToken = "secret-token"
	opts.ActivityFilter = "Payment Hub"
	opts.OutputDir = t.TempDir()
	opts.CacheDir = t.TempDir()
	opts.Concurrency = 4

	return opts, stdout
}

func TestRunExportsWorklogsAndPopulatesCache(t *testing.T) {
	t.Parallel()

	stub := &jiraStub{}
	server := stub.server(t)

	opts, stdout := testOptions(t, server.URL)

	err := export.Run(t.Context(), opts)
	require.NoError(t, err)

	out := stdout.String()
	assert.Contains(t, out, "SUMMARY REPORT")
	assert.Contains(t, out, "Total hours logged: 5.25")
	assert.Contains(t, out, "Total worklog entries: 5")
	assert.Contains(t, out, "2.50 hours  (2 entries)")
	assert.NotContains(t, out, "Skipped")

	// Alice and Bob logged 2.5 hours each, Carol 0.25; ties break by name.
	assert.Less(t, strings.Index(out, "Alice"), strings.Index(out, "Bob"))
	assert.Less(t, strings.Index(out, "Bob"), strings.Index(out, "Carol"))

	dirEntries, err := os.ReadDir(opts.OutputDir)
	require.NoError(t, err)
	require.Len(t, dirEntries, 2)

	var csvPath string

	for _, dirEntry := range dirEntries {
		assert.True(t, strings.HasPrefix(dirEntry.Name(), "zyn_worklogs_"), "unexpected artifact %s", dirEntry.Name())

		if filepath.Ext(dirEntry.Name()) == ".csv" {
			csvPath = filepath.Join(opts.OutputDir, dirEntry.Name())
		}
	}

	require.NotEmpty(t, csvPath)

	csvContent, err := os.ReadFile(csvPath)
	require.NoError(t, err)

	assert.Contains(t, string(csvContent), "issue_key,summary,issue_type")
	assert.Contains(t, string(csvContent), "ZYN-4")
	assert.Contains(t, string(csvContent), "pairing")

	// Five issues resolved metadata and worklogs live; the activity and epic
	// queries account for the two searches.
	assert.Equal(t, int32(5), stub.metadataRequests.Load())
	assert.Equal(t, int32(5), stub.worklogRequests.Load())
	assert.Equal(t, int32(2), stub.searchRequests.Load())

	// A second run searches again but serves every per-issue fetch from the
	// cache.
	err = export.Run(t.Context(), opts)
	require.NoError(t, err)

	assert.Equal(t, int32(5), stub.metadataRequests.Load())
	assert.Equal(t, int32(5), stub.worklogRequests.Load())
	assert.Equal(t, int32(4), stub.searchRequests.Load())

	// Bypassing the cache refetches everything.
	opts.NoCache = true

	err = export.Run(t.Context(), opts)
	require.NoError(t, err)

	assert.Equal(t, int32(10), stub.metadataRequests.Load())
	assert.Equal(t, int32(10), stub.worklogRequests.Load())
}

func TestRunContinuesPastWorklogFailures(t *testing.T) {
	t.Parallel()

	stub := &jiraStub{worklogStatus: map[string]int{"ZYN-3": http.StatusInternalServerError}}
	server := stub.server(t)

	opts, stdout := testOptions(t, server.URL)
	opts.Retries = 0

	err := export.Run(t.Context(), opts)
	require.NoError(t, err)

	out := stdout.String()
	assert.Contains(t, out, "Total hours logged: 5.00")
	assert.Contains(t, out, "Total worklog entries: 4")
	assert.Contains(t, out, "Skipped 1:")
	assert.Contains(t, out, "ZYN-3 (worklog)")

	dirEntries, err := os.ReadDir(opts.OutputDir)
	require.NoError(t, err)
	require.Len(t, dirEntries, 2)

	for _, dirEntry := range dirEntries {
		content, err := os.ReadFile(filepath.Join(opts.OutputDir, dirEntry.Name()))
		require.NoError(t, err)

		if filepath.Ext(dirEntry.Name()) == ".csv" {
			// The excluded issue contributes no rows.
			assert.NotContains(t, string(content), "ZYN-3,")
		} else {
			// The HTML report lists what was skipped.
			assert.Contains(t, string(content), "Skipped Issues")
			assert.Contains(t, string(content), "ZYN-3")
		}
	}
}

func TestRunWithNoMatchesWritesNothing(t *testing.T) {
	t.Parallel()

	stub := &jiraStub{emptySeed: true}
	server := stub.server(t)

	opts, stdout := testOptions(t, server.URL)

	err := export.Run(t.Context(), opts)
	require.NoError(t, err)

	assert.NotContains(t, stdout.String(), "SUMMARY REPORT")

	dirEntries, err := os.ReadDir(opts.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, dirEntries)
}

func TestRunReportsFailedSeedQuery(t *testing.T) {
	t.Parallel()

	stub := &jiraStub{seedStatus: http.StatusInternalServerError}
	server := stub.server(t)

	opts, stdout := testOptions(t, server.URL)
	opts.Retries = 0

	err := export.Run(t.Context(), opts)
	require.NoError(t, err)

	out := stdout.String()
	assert.Contains(t, out, "Skipped 1:")
	assert.Contains(t, out, "- (direct)")
}

func TestRunAbortsOnAuthFailure(t *testing.T) {
	t.Parallel()

	stub := &jiraStub{seedStatus: http.StatusUnauthorized}
	server := stub.server(t)

	opts, _ := testOptions(t, server.URL)

	err := export.Run(t.Context(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected the configured credentials")
}

func TestRunValidatesOptions(t *testing.T) {
	t.Parallel()

	opts := options.NewWorkliftOptionsForTest(new(bytes.Buffer), new(bytes.Buffer))

	err := export.Run(t.Context(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jira url is required")
	assert.Contains(t, err.Error(), "jira token is required")
	assert.Contains(t, err.Error(), "activity filter is required")
}
