package quickbooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// transactionIDHeader carries the remote's per-response diagnostic identifier.
const transactionIDHeader = "intuit_tid"

// APIError is returned when the API responds with a non-success status.
type APIError struct {
	// Body is the raw response body.
	Body string

	// StatusCode is the HTTP status code.
	StatusCode int

	// TransactionID is the diagnostic identifier of the failed response, if any.
	TransactionID string
}

// Error implements error.
func (e *APIError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Client is a QuickBooks Online API client scoped to one company.
type Client struct {
	// accessToken is the OAuth bearer token.
	accessToken string

	// baseURL is the base URL for API requests.
	baseURL string

	// httpClient is the HTTP client for making requests.
	httpClient *http.Client

	// realmID is the company identifier.
	realmID string
}

// String renders q in the remote query language.
func (q Query) String() string {
	var b strings.Builder
	b.WriteString("SELECT * FROM ")
	b.WriteString(q.Entity)
	if q.Where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(q.Where)
	}
	if q.StartPosition > 0 {
		fmt.Fprintf(&b, " STARTPOSITION %d", q.StartPosition)
	}
	if q.MaxResults > 0 {
		fmt.Fprintf(&b, " MAXRESULTS %d", q.MaxResults)
	}
	return b.String()
}

// Query fetches one page of entities matching q.
// A response with no array for the entity is an empty page.
func (c *Client) Query(ctx context.Context, q Query) (*QueryPage, error) {
	if q.Entity == "" {
		return nil, errors.New("entity is required")
	}

	params := url.Values{}
	params.Set("query", q.String())

	reqURL := fmt.Sprintf("%s/v3/company/%s/query?%s", c.baseURL, url.PathEscape(c.realmID), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	tid := resp.Header.Get(transactionIDHeader)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{Body: string(body), StatusCode: resp.StatusCode, TransactionID: tid}
	}

	var result queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	page := &QueryPage{TransactionID: tid}

	raw, ok := result.QueryResponse[q.Entity]
	if !ok {
		return page, nil
	}
	if err := json.Unmarshal(raw, &page.Records); err != nil {
		return nil, fmt.Errorf("decoding %s records: %w", q.Entity, err)
	}

	return page, nil
}

// NewClient creates a new QuickBooks API client for the given company.
func NewClient(accessToken string, realmID string, opts ...Option) (*Client, error) {
	if accessToken == "" {
		return nil, errors.New("access token is required")
	}
	if realmID == "" {
		return nil, errors.New("realm ID is required")
	}

	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("applying option: %w", err)
		}
	}

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: o.timeout}
	}

	return &Client{
		accessToken: accessToken,
		baseURL:     o.resolvedBaseURL(),
		httpClient:  httpClient,
		realmID:     realmID,
	}, nil
}
