// Package gateway provides a gateway to the Jira REST API,
// abstracting away pagination, authentication and the wire format.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/naka-gawa/jira-stats/internal/config"
	"github.com/naka-gawa/jira-stats/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// pageSize is the maxResults value sent with every paginated request.
const pageSize = 50

const apiPath = "/rest/api/2"

// DefaultStoryPointsField is the custom field holding story points on our Jira site.
const DefaultStoryPointsField = "customfield_10030"

// maxStoryPoints bounds accepted estimates so report totals cannot overflow.
const maxStoryPoints = math.MaxInt32

// Fetcher defines the behavior of a gateway for fetching information from Jira.
type Fetcher interface {
	FetchIssues(ctx context.Context, filterID string) ([]domain.Issue, error)
	FetchChangelog(ctx context.Context, issueKey string) ([]domain.ChangeLogEntry, error)
}

// TransportError reports a changelog page that could not be retrieved.
// StatusCode is zero when the request never produced a response.
type TransportError struct {
	IssueKey   string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("fetching changelog for issue %s: %v", e.IssueKey, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetching changelog for issue %s: status %d: %v", e.IssueKey, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetching changelog for issue %s: status %d: %s", e.IssueKey, e.StatusCode, e.Body)
}

func (e *TransportError) Unwrap() error { return e.Err }

// JiraGateway is the concrete implementation of the Fetcher interface.
type JiraGateway struct {
	baseURL     string
	username    string
	token       string
	pointsField string
	httpClient  *http.Client
	logger      zerolog.Logger
}

// pageOptions are the pagination parameters shared by every list endpoint.
type pageOptions struct {
	StartAt    int `url:"startAt"`
	MaxResults int `url:"maxResults"`
}

type searchOptions struct {
	JQL    string `url:"jql"`
	Fields string `url:"fields,omitempty"`
	pageOptions
}

type changelogPage struct {
	Values []struct {
		Created string `json:"created"`
		Items   []struct {
			Field      string  `json:"field"`
			FromString *string `json:"fromString"`
			ToString   *string `json:"toString"`
		} `json:"items"`
	} `json:"values"`
}

type searchPage struct {
	Issues []struct {
		Key    string                     `json:"key"`
		Fields map[string]json.RawMessage `json:"fields"`
	} `json:"issues"`
}

// NewJiraGateway is a constructor that creates a new instance of JiraGateway.
// Requests use HTTP Basic auth when a username is configured; otherwise the
// API token is sent as a bearer personal access token.
func NewJiraGateway(cfg config.Config, pointsField string, logger zerolog.Logger) (Fetcher, error) {
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
	}
	if pointsField == "" {
		pointsField = DefaultStoryPointsField
	}
	httpClient := &http.Client{Timeout: cfg.Timeout}
	if cfg.Username == "" {
		httpClient.Transport = &oauth2.Transport{
			Base:   http.DefaultTransport,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.APIToken}),
		}
	}
	return &JiraGateway{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		username:    cfg.Username,
		token:       cfg.APIToken,
		pointsField: pointsField,
		httpClient:  httpClient,
		logger:      logger,
	}, nil
}

// FetchIssues returns every issue matched by the saved filter, in the order Jira returns them.
func (g *JiraGateway) FetchIssues(ctx context.Context, filterID string) ([]domain.Issue, error) {
	g.logger.Debug().Str("filter", filterID).Msg("fetching issues")
	opts := searchOptions{
		JQL:         "filter=" + filterID,
		Fields:      g.pointsField,
		pageOptions: pageOptions{MaxResults: pageSize},
	}
	var issues []domain.Issue
	for {
		var page searchPage
		status, body, err := g.get(ctx, apiPath+"/search", opts)
		if err != nil {
			return nil, fmt.Errorf("failed to search issues for filter %s: %w", filterID, err)
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("failed to search issues for filter %s: status %d: %s", filterID, status, body)
		}
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("failed to decode search response: %w", err)
		}
		if len(page.Issues) == 0 {
			break
		}
		for _, is := range page.Issues {
			issues = append(issues, domain.Issue{
				Key:         is.Key,
				StoryPoints: ParseStoryPoints(is.Fields[g.pointsField]),
			})
		}
		opts.StartAt += pageSize
		g.logger.Debug().Int("start_at", opts.StartAt).Msg("fetching next page of issues")
	}
	g.logger.Debug().Int("count", len(issues)).Msg("completed fetching issues")
	return issues, nil
}

// FetchChangelog returns the full status history of an issue, oldest first.
// Any failed page discards what was fetched so far and yields a *TransportError.
func (g *JiraGateway) FetchChangelog(ctx context.Context, issueKey string) ([]domain.ChangeLogEntry, error) {
	opts := pageOptions{MaxResults: pageSize}
	path := apiPath + "/issue/" + url.PathEscape(issueKey) + "/changelog"
	var entries []domain.ChangeLogEntry
	for {
		status, body, err := g.get(ctx, path, opts)
		if err != nil {
			return nil, &TransportError{IssueKey: issueKey, Err: err}
		}
		if status != http.StatusOK {
			return nil, &TransportError{IssueKey: issueKey, StatusCode: status, Body: strings.TrimSpace(string(body))}
		}
		var page changelogPage
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, &TransportError{IssueKey: issueKey, StatusCode: status, Err: fmt.Errorf("decoding changelog: %w", err)}
		}
		if len(page.Values) == 0 {
			break
		}
		for _, v := range page.Values {
			created, err := ParseTimestamp(v.Created)
			if err != nil {
				return nil, &TransportError{IssueKey: issueKey, StatusCode: status, Err: err}
			}
			entry := domain.ChangeLogEntry{Created: created, Items: make([]domain.FieldChange, 0, len(v.Items))}
			for _, it := range v.Items {
				entry.Items = append(entry.Items, domain.FieldChange{Field: it.Field, From: it.FromString, To: it.ToString})
			}
			entries = append(entries, entry)
		}
		opts.StartAt += pageSize
	}
	g.logger.Debug().Str("issue", issueKey).Int("entries", len(entries)).Msg("completed fetching changelog")
	return entries, nil
}

func (g *JiraGateway) get(ctx context.Context, path string, opts interface{}) (int, []byte, error) {
	q, err := query.Values(opts)
	if err != nil {
		return 0, nil, fmt.Errorf("encoding query: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if g.username != "" {
		req.SetBasicAuth(g.username, g.token)
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response body: %w", err)
	}
	return resp.StatusCode, body, nil
}

var timestampLayouts = []string{
	"2006-01-02T15:04:05.000-0700",
	time.RFC3339Nano,
}

// ParseTimestamp parses a Jira changelog timestamp.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if len(s) >= 19 {
		if t, err := time.Parse("2006-01-02T15:04:05", s[:19]); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// ParseStoryPoints coerces a story-point field to an integer.
// Missing, null, non-numeric, negative or out-of-range values become 0;
// fractions are truncated.
func ParseStoryPoints(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		if n < 0 || n > maxStoryPoints {
			return 0
		}
		return int(n)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && v >= 0 && v <= maxStoryPoints {
			return v
		}
	}
	return 0
}
