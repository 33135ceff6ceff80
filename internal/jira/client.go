package jira

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-version"

	"github.com/worklift/worklift/internal/errors"
	"github.com/worklift/worklift/pkg/log"
	"github.com/worklift/worklift/util"
)

const (
	searchPath     = "rest/api/2/search"
	issuePath      = "rest/api/2/issue"
	serverInfoPath = "rest/api/2/serverInfo"

	// DefaultPageSize is the page size requested from search and worklog
	// endpoints, matching the cap most Jira instances enforce.
	DefaultPageSize = 100

	// MinSupportedVersion is the oldest Jira release the extractor is tested
	// against.
	MinSupportedVersion = "7.6.0"
)

// Field sets requested per call, kept to what each consumer actually reads.
var (
	// SearchFields is the default field set for traversal searches.
	SearchFields = []string{"summary", "issuetype", "status", "issuelinks"}

	// MetadataFields is the field set fetched for report metadata.
	MetadataFields = []string{
		"issuetype", EpicLinkFieldID, "summary", "components", "labels",
		ProductItemFieldID, TeamFieldID,
		"parent", "created", "updated", "duedate", TargetStartFieldID, TargetEndFieldID,
	}

	// LinkFields limits an issue fetch to its links.
	LinkFields = []string{"issuelinks"}

	// SubtaskFields limits an issue fetch to its sub-tasks.
	SubtaskFields = []string{"subtasks"}
)

// Config carries what the client needs to reach a Jira instance.
type Config struct {
	BaseURL     string
	Email       string
	APIToken    string
	PageSize    int
	Timeout     time.Duration
	RetryPolicy util.RetryPolicy
}

// Client talks to the Jira REST API v2. All methods are safe for concurrent use.
type Client struct {
	*http.Client

	baseURL     *url.URL
	email       string
	apiToken    string
	pageSize    int
	retryPolicy util.RetryPolicy
	logger      log.Logger
}

// NewClient validates the config and builds a client with a pooled transport.
func NewClient(cfg Config, logger log.Logger) (*Client, error) {
	baseURL, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, errors.New(err)
	}

	if baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, errors.Errorf("jira url %q must be absolute, like https://company.atlassian.net", cfg.BaseURL)
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 || pageSize > DefaultPageSize {
		pageSize = DefaultPageSize
	}

	httpClient := cleanhttp.DefaultPooledClient()
	httpClient.Timeout = cfg.Timeout

	return &Client{
		Client:      httpClient,
		baseURL:     baseURL,
		email:       cfg.Email,
		apiToken:    cfg.APIToken,
		pageSize:    pageSize,
		retryPolicy: cfg.RetryPolicy,
		logger:      logger,
	}, nil
}

// PageSize returns the page size the client requests from paginated endpoints.
func (client *Client) PageSize() int {
	return client.pageSize
}

// SearchPages runs the JQL query and invokes fn once per page of results, in
// order. Pagination stops when a page comes back shorter than the requested
// page size.
func (client *Client) SearchPages(ctx context.Context, jql string, fields []string, fn func(issues []Issue) error) error {
	startAt := 0

	for {
		result, err := client.searchPage(ctx, jql, fields, startAt)
		if err != nil {
			return err
		}

		if len(result.Issues) > 0 {
			if err := fn(result.Issues); err != nil {
				return err
			}
		}

		client.logger.Debugf("Fetched %d of %d issues for query %s.", startAt+len(result.Issues), result.Total, jql)

		if len(result.Issues) < client.effectivePageSize(result.MaxResults) {
			return nil
		}

		startAt += len(result.Issues)
	}
}

// SearchIssues runs the JQL query and returns all pages accumulated.
func (client *Client) SearchIssues(ctx context.Context, jql string, fields []string) ([]Issue, error) {
	var all []Issue

	err := client.SearchPages(ctx, jql, fields, func(issues []Issue) error {
		all = append(all, issues...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return all, nil
}

func (client *Client) searchPage(ctx context.Context, jql string, fields []string, startAt int) (*SearchResult, error) {
	query := url.Values{
		"jql":        {jql},
		"startAt":    {strconv.Itoa(startAt)},
		"maxResults": {strconv.Itoa(client.pageSize)},
		"fields":     {strings.Join(fields, ",")},
	}

	var result SearchResult

	err := client.doWithRetry(ctx, "search page for query "+jql, searchPath, query, &result)
	if err != nil {
		var apiErr APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest {
			return nil, errors.New(QueryError{JQL: jql, Messages: apiErr.Messages})
		}

		return nil, err
	}

	return &result, nil
}

// GetIssue fetches a single issue restricted to the given fields.
func (client *Client) GetIssue(ctx context.Context, key string, fields []string) (*Issue, error) {
	query := url.Values{
		"fields": {strings.Join(fields, ",")},
	}

	var issue Issue

	err := client.doWithRetry(ctx, "fetch issue "+key, issuePath+"/"+url.PathEscape(key), query, &issue)
	if err != nil {
		return nil, asNotFound(err, key)
	}

	return &issue, nil
}

// Worklogs fetches every worklog of the issue, page by page.
func (client *Client) Worklogs(ctx context.Context, key string) ([]Worklog, error) {
	var all []Worklog

	startAt := 0

	for {
		query := url.Values{
			"startAt":    {strconv.Itoa(startAt)},
			"maxResults": {strconv.Itoa(client.pageSize)},
		}

		var page WorklogPage

		err := client.doWithRetry(ctx, "fetch worklogs of "+key, issuePath+"/"+url.PathEscape(key)+"/worklog", query, &page)
		if err != nil {
			return nil, asNotFound(err, key)
		}

		all = append(all, page.Worklogs...)

		if len(page.Worklogs) < client.effectivePageSize(page.MaxResults) {
			return all, nil
		}

		startAt += len(page.Worklogs)
	}
}

// ServerInfo fetches the Jira server description.
func (client *Client) ServerInfo(ctx context.Context) (*ServerInfo, error) {
	var info ServerInfo

	if err := client.doWithRetry(ctx, "fetch server info", serverInfoPath, nil, &info); err != nil {
		return nil, err
	}

	return &info, nil
}

// CheckServerVersion warns when the Jira release is older than the oldest
// tested one. Failures here only log, they never fail a run.
func (client *Client) CheckServerVersion(ctx context.Context) {
	info, err := client.ServerInfo(ctx)
	if err != nil {
		client.logger.Debugf("Could not read Jira server info: %s.", err)
		return
	}

	if info.Version == "" {
		return
	}

	current, err := version.NewVersion(info.Version)
	if err != nil {
		client.logger.Debugf("Could not parse Jira version %q: %s.", info.Version, err)
		return
	}

	if minimum := version.Must(version.NewVersion(MinSupportedVersion)); current.LessThan(minimum) {
		client.logger.Warnf("Jira %s is older than the oldest tested release %s, worklog pagination may be unsupported.", info.Version, MinSupportedVersion)
	}
}

// effectivePageSize accounts for servers that clamp maxResults below the
// requested size, so a clamped full page is not mistaken for a short one.
func (client *Client) effectivePageSize(serverMax int) int {
	if serverMax > 0 && serverMax < client.pageSize {
		return serverMax
	}

	return client.pageSize
}

// doWithRetry wraps a request with the retry policy. Deterministic client-side
// failures (auth, bad request, missing issue) bypass the retries.
func (client *Client) doWithRetry(ctx context.Context, description, path string, query url.Values, value any) error {
	return util.DoWithRetry(ctx, description, client.retryPolicy, client.logger, log.TraceLevel, func(ctx context.Context) error {
		err := client.do(ctx, path, query, value)
		if err == nil {
			return nil
		}

		var authErr AuthError
		if errors.As(err, &authErr) {
			return util.FatalError{Underlying: err}
		}

		var apiErr APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode >= http.StatusBadRequest && apiErr.StatusCode < http.StatusInternalServerError {
			return util.FatalError{Underlying: err}
		}

		return err
	})
}

// do sends one GET request and decodes the JSON response into value.
func (client *Client) do(ctx context.Context, path string, query url.Values, value any) error {
	reqURL := client.baseURL.JoinPath(path)
	if len(query) > 0 {
		reqURL.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return errors.New(err)
	}

	// Jira Cloud wants email+token basic auth; Server and Data Center
	// personal access tokens ride in a bearer header.
	if client.email != "" {
		req.SetBasicAuth(client.email, client.apiToken)
	} else {
		req.Header.Set("Authorization", "Bearer "+client.apiToken)
	}

	req.Header.Set("Accept", "application/json")

	client.logger.Tracef("GET %s", reqURL)

	resp, err := client.Client.Do(req)
	if err != nil {
		return errors.New(err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if err := checkStatus(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(value); err != nil {
		return errors.New(err)
	}

	return nil
}

func checkStatus(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.New(AuthError{StatusCode: resp.StatusCode})
	case http.StatusTooManyRequests:
		return errors.New(RateLimitError{RetryAfterHint: retryAfterHint(resp)})
	default:
		return errors.New(APIError{
			URL:        resp.Request.URL.String(),
			StatusCode: resp.StatusCode,
			Messages:   errorMessages(resp),
		})
	}
}

// retryAfterHint parses the Retry-After header, which carries either seconds
// or an HTTP date.
func retryAfterHint(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	if at, err := http.ParseTime(header); err == nil {
		if wait := time.Until(at); wait > 0 {
			return wait
		}
	}

	return 0
}

// errorMessages pulls the human readable messages out of a Jira error body.
func errorMessages(resp *http.Response) []string {
	var body struct {
		ErrorMessages []string          `json:"errorMessages"`
		Errors        map[string]string `json:"errors"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil
	}

	messages := body.ErrorMessages

	for field, message := range body.Errors {
		messages = append(messages, field+": "+message)
	}

	return messages
}

// asNotFound converts a 404 API error on an issue-scoped call to NotFoundError.
func asNotFound(err error, key string) error {
	var apiErr APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return errors.New(NotFoundError{Key: key})
	}

	return err
}
