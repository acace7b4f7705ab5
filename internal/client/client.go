package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/matsen/depviz/internal/graph"
	"github.com/matsen/depviz/internal/query"
)

const (
	// DefaultBaseURL is the server address used when none is configured.
	DefaultBaseURL = "http://localhost:8080"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit caps outgoing requests per second.
	DefaultRateLimit = 20.0

	// DefaultArtifactLimit is the default page size for artifact listing.
	DefaultArtifactLimit = 500

	apiPrefix = "/api"
)

// Client is a rate-limited HTTP client for the depviz data server.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets the server address.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithRateLimit sets the maximum requests per second. Zero or less disables limiting.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 5)
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a new client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), 5),
		baseURL:    DefaultBaseURL,
		logger:     slog.New(discardHandler{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured server address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do sends a request and returns the response if its status is below 400.
// The caller closes the body.
func (c *Client) do(ctx context.Context, method, path string, params query.Params, body io.Reader, contentType string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", ErrTransport, err)
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("User-Agent", "depviz-cli")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	c.logger.Debug("request", "method", method, "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Path:       path,
			Message:    readErrorMessage(resp.Body),
		}
	}
	return resp, nil
}

// getJSON issues a GET and decodes the JSON body into v.
func (c *Client) getJSON(ctx context.Context, path string, params query.Params, v any) error {
	resp, err := c.do(ctx, http.MethodGet, path, params, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", ErrInvalidResponse, path, err)
	}
	return nil
}

// readErrorMessage extracts a short message from an error body.
func readErrorMessage(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 4096))
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(data))
}

// Upload sends descriptor files as one multipart batch.
//
// A rejected batch (status 400 with an outcome body) is returned as an
// outcome with Success false, not as an error.
func (c *Client) Upload(ctx context.Context, files []UploadFile) (UploadOutcome, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := mw.CreateFormFile("files", f.Name)
		if err != nil {
			return UploadOutcome{}, fmt.Errorf("creating form part for %s: %w", f.Name, err)
		}
		if _, err := part.Write(f.Content); err != nil {
			return UploadOutcome{}, fmt.Errorf("writing form part for %s: %w", f.Name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return UploadOutcome{}, fmt.Errorf("closing multipart body: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, apiPrefix+"/upload", nil, &buf, mw.FormDataContentType())
	if err != nil {
		var apiErr *APIError
		if asAPIError(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest {
			return UploadOutcome{Success: false, Error: apiErr.Message, Errors: []string{apiErr.Message}}, nil
		}
		return UploadOutcome{}, err
	}
	defer resp.Body.Close()

	var outcome UploadOutcome
	if err := json.NewDecoder(resp.Body).Decode(&outcome); err != nil {
		return UploadOutcome{}, fmt.Errorf("%w: decoding upload outcome: %v", ErrInvalidResponse, err)
	}
	return outcome, nil
}

// Artifacts lists stored artifacts, at most limit of them.
func (c *Client) Artifacts(ctx context.Context, limit int) ([]Artifact, error) {
	if limit <= 0 {
		limit = DefaultArtifactLimit
	}
	var out []Artifact
	params := query.Params{}.AddPositive("limit", limit)
	if err := c.getJSON(ctx, apiPrefix+"/artifacts", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchGraph resolves the element set for q. An unknown root yields an empty
// set and no error.
func (c *Client) FetchGraph(ctx context.Context, q query.GraphQuery) (graph.Elements, error) {
	var doc graph.Document
	err := c.getJSON(ctx, apiPrefix+"/graph/data", query.BuildGraph(q), &doc)
	if err != nil {
		if IsNotFound(err) && q.RootID != "" {
			return graph.Elements{}, nil
		}
		return graph.Elements{}, err
	}
	return graph.FromCytoscape(doc.Elements), nil
}

// FetchTable resolves the dependency rows for q, capped at q.Limit.
func (c *Client) FetchTable(ctx context.Context, q query.TableQuery) ([]Row, error) {
	var rows []Row
	if err := c.getJSON(ctx, apiPrefix+"/dependencies/table", query.BuildTable(q), &rows); err != nil {
		return nil, err
	}
	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}
	return rows, nil
}

// FetchScopeValues derives the distinct scope values by sampling up to
// query.ScopeSampleLimit table rows. Scopes that only occur beyond the sample
// are missed; the result is best effort. Values keep first-seen order.
func (c *Client) FetchScopeValues(ctx context.Context) ([]string, error) {
	rows, err := c.FetchTable(ctx, query.TableQuery{Limit: query.ScopeSampleLimit})
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var scopes []string
	for _, r := range rows {
		if r.Scope == "" || seen[r.Scope] {
			continue
		}
		seen[r.Scope] = true
		scopes = append(scopes, r.Scope)
	}
	return scopes, nil
}

// DependenciesExportURL returns the CSV download address for the filtered table.
func (c *Client) DependenciesExportURL(q query.TableQuery) string {
	u := c.baseURL + apiPrefix + "/dependencies/export"
	if p := query.BuildExport(q); len(p) > 0 {
		u += "?" + p.Encode()
	}
	return u
}

// TableExportURL returns the CSV download address for a whole table.
func (c *Client) TableExportURL(table string) string {
	return c.baseURL + "/export/" + table + ".csv"
}

// ExportDependencies streams the filtered dependency CSV into w.
func (c *Client) ExportDependencies(ctx context.Context, q query.TableQuery, w io.Writer) (int64, error) {
	return c.stream(ctx, apiPrefix+"/dependencies/export", query.BuildExport(q), w)
}

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ExportTable streams a whole table as CSV into w.
func (c *Client) ExportTable(ctx context.Context, table string, w io.Writer) (int64, error) {
	if !tableNamePattern.MatchString(table) {
		return 0, fmt.Errorf("invalid table name %q", table)
	}
	return c.stream(ctx, "/export/"+table+".csv", nil, w)
}

func (c *Client) stream(ctx context.Context, path string, params query.Params, w io.Writer) (int64, error) {
	resp, err := c.do(ctx, http.MethodGet, path, params, nil, "")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("%w: reading %s: %v", ErrTransport, path, err)
	}
	return n, nil
}
