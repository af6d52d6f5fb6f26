// Package mcp adapts tools served by external MCP server subprocesses to the
// agent's Tool interface. Each client owns one subprocess and speaks the
// Model Context Protocol with it over stdio.
package mcp

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/aslamanver/mcp-clockify/errors"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// MCPClient manages the connection to a single MCP server subprocess.
type MCPClient struct {
	Name  string
	cmd   *exec.Cmd
	conn  *mcpsdk.ClientSession
	tools map[string]*MCPTool
}

// NewMCPClient starts the MCP server subprocess and discovers the tools it
// advertises. When filter is non-empty, only tools named in it are kept; the
// rest are discarded at discovery time so the model never sees them.
func NewMCPClient(ctx context.Context, name, command string, args, filter []string) (*MCPClient, error) {
	cmd := exec.Command(command, args...)
	cmd.Stderr = os.Stderr
	mcpClient := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "mcp-clockify", Version: "v1.0.0"}, nil)
	conn, err := mcpClient.Connect(ctx, mcpsdk.NewCommandTransport(cmd))
	if err != nil {
		// Process is nil when the command never started.
		if cmd.Process != nil {
			cmd.Process.Kill()
		}
		return nil, errors.Wrapf(err, "failed to connect to MCP server '%s'", name)
	}
	client := &MCPClient{
		Name:  name,
		cmd:   cmd,
		conn:  conn,
		tools: make(map[string]*MCPTool),
	}

	allowed := make(map[string]bool, len(filter))
	for _, f := range filter {
		allowed[f] = true
	}

	toolListParams := &mcpsdk.ListToolsParams{}
	for {
		toolList, err := conn.ListTools(ctx, toolListParams)
		if err != nil {
			// Stop the process we just started.
			client.Stop()
			return nil, errors.Wrapf(err, "failed to list tools from MCP server '%s'", name)
		}

		for _, t := range toolList.Tools {
			if len(allowed) > 0 && !allowed[t.Name] {
				continue
			}
			client.tools[t.Name] = &MCPTool{
				serverName:  name,
				toolName:    t.Name,
				description: t.Description,
				client:      client,
			}
		}

		if toolList.NextCursor == "" {
			break
		}
		toolListParams.Cursor = toolList.NextCursor
	}

	return client, nil
}

// GetTool returns a specific tool provided by this MCP server by its short name.
func (c *MCPClient) GetTool(toolName string) (*MCPTool, bool) {
	tool, ok := c.tools[toolName]
	return tool, ok
}

// Tools returns every discovered tool on this server that survived the filter.
func (c *MCPClient) Tools() []*MCPTool {
	out := make([]*MCPTool, 0, len(c.tools))
	for _, t := range c.tools {
		out = append(out, t)
	}
	return out
}

// Stop terminates the MCP server subprocess.
func (c *MCPClient) Stop() error {
	if c.conn != nil {
		c.conn.Close()
	}
	if c.cmd != nil && c.cmd.Process != nil {
		return c.cmd.Process.Kill()
	}
	return nil
}

// MCPTool represents a tool available from an external MCP server. It
// satisfies the tools.Tool interface from the parent package.
type MCPTool struct {
	serverName  string
	toolName    string
	description string
	client      *MCPClient
}

// Name returns the tool's short name as advertised by the server. Qualified
// "<server>:<tool>" names are resolved by the registry, not encoded here;
// some models reject function names containing a colon.
func (t *MCPTool) Name() string {
	return t.toolName
}

// Server returns the name of the MCP server providing this tool.
func (t *MCPTool) Server() string {
	return t.serverName
}

// Description returns the tool's description, provided by the MCP server.
func (t *MCPTool) Description() string {
	return t.description
}

// Execute sends the call to the MCP server and concatenates the text content
// of the result.
func (t *MCPTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	result, err := t.client.conn.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      t.toolName,
		Arguments: args,
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to call tool '%s' on server '%s'", t.toolName, t.serverName)
	}
	op := ""
	for _, c := range result.Content {
		if text, ok := c.(*mcpsdk.TextContent); ok {
			op += text.Text
		} else {
			op += fmt.Sprintf("[unsupported content type %T]", c)
		}
	}
	return op, nil
}
