package donation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	donationPort "fundsync/internal/ports/donation"
)

// Client is an HTTP client for the donation-platform API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type searchResponse struct {
	Nonprofits []*donationPort.Nonprofit `json:"nonprofits"`
}

func (c *Client) SearchNonprofits(ctx context.Context, query string) ([]*donationPort.Nonprofit, error) {
	var resp searchResponse
	if err := c.get(ctx, "/search/"+url.PathEscape(query), &resp); err != nil {
		return nil, fmt.Errorf("search nonprofits: %w", err)
	}
	return resp.Nonprofits, nil
}

func (c *Client) GetFundraiser(ctx context.Context, id string) (*donationPort.Fundraiser, error) {
	var resp donationPort.Fundraiser
	if err := c.get(ctx, "/fundraisers/"+url.PathEscape(id), &resp); err != nil {
		return nil, fmt.Errorf("get fundraiser %s: %w", id, err)
	}
	return &resp, nil
}

func (c *Client) GetRaisedDetails(ctx context.Context, id string) (*donationPort.RaisedDetails, error) {
	var resp donationPort.RaisedDetails
	if err := c.get(ctx, "/fundraisers/"+url.PathEscape(id)+"/raised", &resp); err != nil {
		return nil, fmt.Errorf("get raised details %s: %w", id, err)
	}
	return &resp, nil
}

type createResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Links     struct {
		Self string `json:"self"`
		Web  string `json:"web"`
	} `json:"links"`
}

func (c *Client) CreateFundraiser(ctx context.Context, req *donationPort.CreateRequest) (*donationPort.Created, error) {
	var resp createResponse
	if err := c.post(ctx, "/fundraisers", req, &resp); err != nil {
		return nil, fmt.Errorf("create fundraiser: %w", err)
	}
	return &donationPort.Created{
		ID:        resp.ID,
		Title:     resp.Title,
		StartDate: resp.StartDate,
		EndDate:   resp.EndDate,
		SelfLink:  resp.Links.Self,
		WebLink:   resp.Links.Web,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) post(ctx context.Context, path string, body, result interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, payload, result)
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, result interface{}) error {
	if c.apiKey == "" {
		return donationPort.ErrMissingAPIKey
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	q := req.URL.Query()
	q.Set("apiKey", c.apiKey)
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return donationPort.ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("status %d: %w", resp.StatusCode, donationPort.ErrMissingAPIKey)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}
