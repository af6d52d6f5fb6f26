// Package clockify is a minimal client for the Clockify REST API v1,
// covering the operations the MCP server exposes as tools.
package clockify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aslamanver/mcp-clockify/errors"
)

// DefaultBaseURL is the public Clockify API endpoint.
const DefaultBaseURL = "https://api.clockify.me/api/v1"

// Client talks to the Clockify REST API. Authentication is an X-Api-Key
// header on every request.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a Clockify API client. An empty baseURL selects the
// public endpoint.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// User is the authenticated Clockify user.
type User struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	ActiveWorkspace  string `json:"activeWorkspace"`
	DefaultWorkspace string `json:"defaultWorkspace"`
}

type Workspace struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Project struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ClientID string `json:"clientId,omitempty"`
	Archived bool   `json:"archived"`
}

// TimeInterval holds the start and end of a time entry in RFC 3339. End is
// empty while the timer is running.
type TimeInterval struct {
	Start    string `json:"start"`
	End      string `json:"end,omitempty"`
	Duration string `json:"duration,omitempty"`
}

type TimeEntry struct {
	ID           string       `json:"id"`
	Description  string       `json:"description"`
	ProjectID    string       `json:"projectId,omitempty"`
	WorkspaceID  string       `json:"workspaceId,omitempty"`
	TimeInterval TimeInterval `json:"timeInterval"`
}

// CurrentUser returns the user owning the API key.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/user", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Workspaces lists the workspaces visible to the user.
func (c *Client) Workspaces(ctx context.Context) ([]Workspace, error) {
	var workspaces []Workspace
	if err := c.do(ctx, http.MethodGet, "/workspaces", nil, &workspaces); err != nil {
		return nil, err
	}
	return workspaces, nil
}

// Projects lists the projects of a workspace.
func (c *Client) Projects(ctx context.Context, workspaceID string) ([]Project, error) {
	var projects []Project
	path := fmt.Sprintf("/workspaces/%s/projects", workspaceID)
	if err := c.do(ctx, http.MethodGet, path, nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// StartTimerRequest describes a new running time entry.
type StartTimerRequest struct {
	Start       time.Time
	Description string
	ProjectID   string
}

// StartTimer creates a running time entry in the workspace.
func (c *Client) StartTimer(ctx context.Context, workspaceID string, req StartTimerRequest) (*TimeEntry, error) {
	start := req.Start
	if start.IsZero() {
		start = time.Now().UTC()
	}
	body := map[string]interface{}{
		"start":       start.Format(time.RFC3339),
		"description": req.Description,
	}
	if req.ProjectID != "" {
		body["projectId"] = req.ProjectID
	}

	var entry TimeEntry
	path := fmt.Sprintf("/workspaces/%s/time-entries", workspaceID)
	if err := c.do(ctx, http.MethodPost, path, body, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// StopTimer ends the user's currently running time entry.
func (c *Client) StopTimer(ctx context.Context, workspaceID, userID string, end time.Time) (*TimeEntry, error) {
	if end.IsZero() {
		end = time.Now().UTC()
	}
	body := map[string]interface{}{
		"end": end.Format(time.RFC3339),
	}

	var entry TimeEntry
	path := fmt.Sprintf("/workspaces/%s/user/%s/time-entries", workspaceID, userID)
	if err := c.do(ctx, http.MethodPatch, path, body, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// TimeEntries lists the user's time entries in the workspace, newest first.
func (c *Client) TimeEntries(ctx context.Context, workspaceID, userID string) ([]TimeEntry, error) {
	var entries []TimeEntry
	path := fmt.Sprintf("/workspaces/%s/user/%s/time-entries", workspaceID, userID)
	if err := c.do(ctx, http.MethodGet, path, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// do performs one API request, encoding body as JSON when present and
// decoding the response into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "failed to encode request body")
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return errors.Wrapf(err, "failed to create request")
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "request %s %s failed", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.New("Clockify API returned %d for %s %s: %s", resp.StatusCode, method, path, string(msg))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "failed to decode response for %s %s", method, path)
	}
	return nil
}
