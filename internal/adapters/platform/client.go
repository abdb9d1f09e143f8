package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	platformPort "fundsync/internal/ports/platform"
)

// Client is an HTTP client for the social-platform API. All calls carry the
// app's bearer token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) CreatePost(ctx context.Context, title, subreddit, previewText string) (*platformPort.Post, error) {
	body := map[string]string{
		"title":     title,
		"subreddit": subreddit,
		"preview":   previewText,
	}
	var post platformPort.Post
	if err := c.do(ctx, http.MethodPost, "/api/posts", body, &post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return &post, nil
}

// GetPostByID returns nil, nil when the post has been deleted.
func (c *Client) GetPostByID(ctx context.Context, id string) (*platformPort.Post, error) {
	var post platformPort.Post
	err := c.do(ctx, http.MethodGet, "/api/posts/"+url.PathEscape(id), nil, &post)
	if err == errGone {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get post %s: %w", id, err)
	}
	return &post, nil
}

func (c *Client) RemovePost(ctx context.Context, id string, isSpam bool) error {
	body := map[string]interface{}{"spam": isSpam}
	if err := c.do(ctx, http.MethodPost, "/api/posts/"+url.PathEscape(id)+"/remove", body, nil); err != nil && err != errGone {
		return fmt.Errorf("remove post %s: %w", id, err)
	}
	return nil
}

func (c *Client) SendModeratorMessage(ctx context.Context, subreddit, subject, body string) error {
	payload := map[string]string{
		"subreddit": subreddit,
		"subject":   subject,
		"body":      body,
	}
	if err := c.do(ctx, http.MethodPost, "/api/modmail", payload, nil); err != nil {
		return fmt.Errorf("send moderator message: %w", err)
	}
	return nil
}

func (c *Client) UploadFromURL(ctx context.Context, sourceURL string) (*platformPort.Asset, error) {
	body := map[string]string{"url": sourceURL}
	var asset platformPort.Asset
	if err := c.do(ctx, http.MethodPost, "/api/media/upload", body, &asset); err != nil {
		return nil, fmt.Errorf("upload media from url: %w", err)
	}
	return &asset, nil
}

// errGone marks a 404 so GetPostByID can map it to nil.
var errGone = fmt.Errorf("platform resource gone")

func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return errGone
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}
