package listmonk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a minimal HTTP client for the Listmonk API.
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
}

// New creates a new Listmonk client.
// baseURL should be like "http://localhost:9000" (no trailing slash).
func New(baseURL, username, password string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		http:     &http.Client{Timeout: timeout},
	}
}

// List is a Listmonk subscriber list.
type List struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// IsConfigured probes /api/health to check reachability and credentials.
// The probe carries its own short timeout so a dead mail server cannot
// stall a generation pass.
func (c *Client) IsConfigured(ctx context.Context) bool {
	if c == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", http.NoBody)
	if err != nil {
		return false
	}
	req.SetBasicAuth(c.username, c.password)
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// GetLists returns all subscriber lists.
func (c *Client) GetLists(ctx context.Context) ([]List, error) {
	var out struct {
		Data struct {
			Results []List `json:"results"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/lists", nil, &out); err != nil {
		return nil, err
	}
	return out.Data.Results, nil
}

// CreateList creates a new public single-optin subscriber list.
func (c *Client) CreateList(ctx context.Context, name, description string) (*List, error) {
	if description == "" {
		description = "AI Newsletter Subscribers"
	}
	body := map[string]any{
		"name":        name,
		"type":        "public",
		"optin":       "single",
		"tags":        []string{"ai-newsletter"},
		"description": description,
	}
	var out struct {
		Data List `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/lists", body, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// AddSubscriber registers an email on the given lists, preconfirmed.
func (c *Client) AddSubscriber(ctx context.Context, email, name string, lists []int) error {
	if len(lists) == 0 {
		return errors.New("no target lists")
	}
	body := map[string]any{
		"email":                    email,
		"name":                     name,
		"status":                   "enabled",
		"lists":                    lists,
		"preconfirm_subscriptions": true,
	}
	return c.do(ctx, http.MethodPost, "/api/subscribers", body, nil)
}

// Dispatch creates a campaign with the rendered HTML and starts it.
func (c *Client) Dispatch(ctx context.Context, subject, html string, listID int) error {
	if c == nil {
		return errors.New("nil listmonk client")
	}
	body := map[string]any{
		"name":         fmt.Sprintf("AI Newsletter - %s", time.Now().UTC().Format("2006-01-02")),
		"subject":      subject,
		"lists":        []int{listID},
		"type":         "regular",
		"content_type": "html",
		"body":         html,
		"template_id":  1,
	}
	var out struct {
		Data struct {
			ID int `json:"id"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/campaigns", body, &out); err != nil {
		return fmt.Errorf("create campaign: %w", err)
	}
	if out.Data.ID == 0 {
		return errors.New("create campaign: missing id in response")
	}
	status := map[string]any{"status": "running"}
	path := fmt.Sprintf("/api/campaigns/%d/status", out.Data.ID)
	if err := c.do(ctx, http.MethodPut, path, status, nil); err != nil {
		return fmt.Errorf("start campaign %d: %w", out.Data.ID, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c == nil {
		return errors.New("nil listmonk client")
	}
	var rd io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("listmonk %s %s failed: status=%d body=%s", method, path, resp.StatusCode, string(b))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return err
		}
	}
	return nil
}
