// Package mcpserver exposes the Clockify API as MCP tools over stdio. It is
// the first-party tool server the agent can launch instead of an external
// script.
package mcpserver

import (
	"context"
	"encoding/json"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aslamanver/mcp-clockify/clockify"
	"github.com/aslamanver/mcp-clockify/errors"
)

// Server wraps an MCP server whose tools are backed by the Clockify API.
type Server struct {
	api *clockify.Client
	mcp *mcpsdk.Server
}

// New builds the MCP server and registers the Clockify tools on it.
func New(api *clockify.Client) *Server {
	s := &Server{
		api: api,
		mcp: mcpsdk.NewServer(&mcpsdk.Implementation{Name: "clockify-mcp", Version: "v1.0.0"}, nil),
	}

	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "get_current_user",
		Description: "Returns the Clockify user that owns the configured API key, including the active workspace ID.",
	}, s.getCurrentUser)
	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "list_workspaces",
		Description: "Lists the Clockify workspaces visible to the user.",
	}, s.listWorkspaces)
	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "list_projects",
		Description: "Lists the projects of a workspace. Args: workspace_id (string).",
	}, s.listProjects)
	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "start_timer",
		Description: "Starts a new running time entry. Args: workspace_id (string), description (string), project_id (optional string).",
	}, s.startTimer)
	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "stop_timer",
		Description: "Stops the user's currently running time entry. Args: workspace_id (string), user_id (string).",
	}, s.stopTimer)
	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "list_time_entries",
		Description: "Lists the user's time entries in a workspace, newest first. Args: workspace_id (string), user_id (string).",
	}, s.listTimeEntries)

	return s
}

// Run serves MCP over the given transport until the context is cancelled or
// the client disconnects.
func (s *Server) Run(ctx context.Context, transport mcpsdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}

// textResult marshals v to indented JSON and wraps it as a text content
// result, the shape every tool here returns.
func textResult(v interface{}) (*mcpsdk.CallToolResultFor[any], error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode tool result")
	}
	return &mcpsdk.CallToolResultFor[any]{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, nil
}

type emptyArgs struct{}

func (s *Server) getCurrentUser(ctx context.Context, _ *mcpsdk.ServerSession, _ *mcpsdk.CallToolParamsFor[emptyArgs]) (*mcpsdk.CallToolResultFor[any], error) {
	user, err := s.api.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	return textResult(user)
}

func (s *Server) listWorkspaces(ctx context.Context, _ *mcpsdk.ServerSession, _ *mcpsdk.CallToolParamsFor[emptyArgs]) (*mcpsdk.CallToolResultFor[any], error) {
	workspaces, err := s.api.Workspaces(ctx)
	if err != nil {
		return nil, err
	}
	return textResult(workspaces)
}

type listProjectsArgs struct {
	WorkspaceID string `json:"workspace_id"`
}

func (s *Server) listProjects(ctx context.Context, _ *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[listProjectsArgs]) (*mcpsdk.CallToolResultFor[any], error) {
	if params.Arguments.WorkspaceID == "" {
		return nil, errors.New("workspace_id is required")
	}
	projects, err := s.api.Projects(ctx, params.Arguments.WorkspaceID)
	if err != nil {
		return nil, err
	}
	return textResult(projects)
}

type startTimerArgs struct {
	WorkspaceID string `json:"workspace_id"`
	Description string `json:"description"`
	ProjectID   string `json:"project_id,omitempty"`
}

func (s *Server) startTimer(ctx context.Context, _ *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[startTimerArgs]) (*mcpsdk.CallToolResultFor[any], error) {
	if params.Arguments.WorkspaceID == "" {
		return nil, errors.New("workspace_id is required")
	}
	entry, err := s.api.StartTimer(ctx, params.Arguments.WorkspaceID, clockify.StartTimerRequest{
		Start:       time.Now().UTC(),
		Description: params.Arguments.Description,
		ProjectID:   params.Arguments.ProjectID,
	})
	if err != nil {
		return nil, err
	}
	return textResult(entry)
}

type stopTimerArgs struct {
	WorkspaceID string `json:"workspace_id"`
	UserID      string `json:"user_id"`
}

func (s *Server) stopTimer(ctx context.Context, _ *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[stopTimerArgs]) (*mcpsdk.CallToolResultFor[any], error) {
	if params.Arguments.WorkspaceID == "" || params.Arguments.UserID == "" {
		return nil, errors.New("workspace_id and user_id are required")
	}
	entry, err := s.api.StopTimer(ctx, params.Arguments.WorkspaceID, params.Arguments.UserID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return textResult(entry)
}

type listTimeEntriesArgs struct {
	WorkspaceID string `json:"workspace_id"`
	UserID      string `json:"user_id"`
}

func (s *Server) listTimeEntries(ctx context.Context, _ *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[listTimeEntriesArgs]) (*mcpsdk.CallToolResultFor[any], error) {
	if params.Arguments.WorkspaceID == "" || params.Arguments.UserID == "" {
		return nil, errors.New("workspace_id and user_id are required")
	}
	entries, err := s.api.TimeEntries(ctx, params.Arguments.WorkspaceID, params.Arguments.UserID)
	if err != nil {
		return nil, err
	}
	return textResult(entries)
}
