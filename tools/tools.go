package tools

import (
	"context"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aslamanver/mcp-clockify/config"
	"github.com/aslamanver/mcp-clockify/errors"
	"github.com/aslamanver/mcp-clockify/tools/mcp"
)

// Tool defines the interface for any action the agent can take.
type Tool interface {
	Name() string
	Description() string
	Execute(ctx context.Context, args map[string]interface{}) (string, error)
}

// ToolRegistry holds the built-in tools and the MCP clients for every
// configured server, keyed by server name.
type ToolRegistry struct {
	tools      map[string]Tool
	mcpClients map[string]*mcp.MCPClient
}

// NewToolRegistry registers the built-in tools and launches one MCP client
// per configured server. The config's tool filter is applied at discovery, so
// filtered-out tools never enter the registry.
func NewToolRegistry(ctx context.Context, cfg *config.Config) (*ToolRegistry, error) {
	r := &ToolRegistry{
		tools:      make(map[string]Tool),
		mcpClients: make(map[string]*mcp.MCPClient),
	}

	r.Register(&ReadFileTool{fsAccess: &cfg.FilesystemAccess})
	r.Register(&WriteFileTool{fsAccess: &cfg.FilesystemAccess})
	r.Register(&ExecuteCommandTool{allowedCommands: cfg.AllowedCommands})

	for _, srv := range cfg.Servers() {
		client, err := mcp.NewMCPClient(ctx, srv.Name, srv.Command, srv.Args, cfg.ToolFilter)
		if err != nil {
			r.Close()
			return nil, errors.Wrapf(err, "failed to start MCP server '%s'", srv.Name)
		}
		r.mcpClients[srv.Name] = client
	}

	return r, nil
}

// Close stops every MCP server subprocess. The first error encountered is
// returned, but all clients are stopped regardless.
func (r *ToolRegistry) Close() error {
	var firstErr error
	for name, client := range r.mcpClients {
		if err := client.Stop(); err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "failed to stop MCP server '%s'", name)
		}
		delete(r.mcpClients, name)
	}
	return firstErr
}

func (r *ToolRegistry) Register(t Tool) {
	r.tools[t.Name()] = t
}

func (r *ToolRegistry) GetTool(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// MCPTools returns every tool discovered across all MCP servers.
func (r *ToolRegistry) MCPTools() []Tool {
	var out []Tool
	for _, client := range r.mcpClients {
		for _, t := range client.Tools() {
			out = append(out, t)
		}
	}
	return out
}

// GetActiveTools resolves a toolset into tool instances. A nil toolset means
// no toolsets are configured; in that case every MCP tool is active, matching
// the original single-server agent which exposed whatever the server
// advertised. Toolset entries may name a built-in tool, a qualified MCP tool
// "<server>:<tool>", or a wildcard "<server>:*".
func (r *ToolRegistry) GetActiveTools(ts *config.Toolset) ([]Tool, error) {
	if ts == nil {
		return r.MCPTools(), nil
	}

	var activeTools []Tool
	for _, toolName := range ts.Tools {
		if server, tool, ok := strings.Cut(toolName, ":"); ok {
			client, found := r.mcpClients[server]
			if !found {
				return nil, errors.New("toolset '%s' references unknown MCP server '%s'", ts.Name, server)
			}
			if tool == "*" {
				for _, t := range client.Tools() {
					activeTools = append(activeTools, t)
				}
				continue
			}
			t, found := client.GetTool(tool)
			if !found {
				return nil, errors.New("MCP server '%s' does not provide tool '%s'", server, tool)
			}
			activeTools = append(activeTools, t)
			continue
		}

		if t, ok := r.GetTool(toolName); ok {
			activeTools = append(activeTools, t)
		} else {
			return nil, errors.New("tool '%s' from toolset '%s' is not registered", toolName, ts.Name)
		}
	}
	return activeTools, nil
}

// isPathRestricted checks if a path matches any of the glob patterns.
func isPathRestricted(path string, patterns []string) (bool, error) {
	for _, pattern := range patterns {
		match, err := doublestar.PathMatch(pattern, path)
		if err != nil {
			return false, errors.Wrapf(err, "invalid glob pattern '%s'", pattern)
		}
		if match {
			return true, nil
		}
	}
	return false, nil
}

// isCommandAllowed checks if a command is in the allowlist (with regex
// support). Patterns are anchored to the whole command so an entry cannot
// admit a longer command that merely contains a match.
func isCommandAllowed(command string, allowed []string) (bool, error) {
	if len(strings.Fields(command)) == 0 {
		return false, nil
	}

	for _, pattern := range allowed {
		re, err := regexp.Compile("^(?:" + pattern + ")$")
		if err != nil {
			// Fall back to exact comparison when the pattern is not a
			// valid regex.
			if command == pattern {
				return true, nil
			}
			continue
		}
		if re.MatchString(command) {
			return true, nil
		}
	}
	return false, nil
}
