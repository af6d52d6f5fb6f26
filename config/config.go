package config

import (
	"os"
	"path/filepath"

	"github.com/aslamanver/mcp-clockify/errors"
	"gopkg.in/yaml.v3"
)

// ConfigDirName is the dot-directory holding config and session files, both
// in the user's home directory and in the working directory.
const ConfigDirName = ".mcp-clockify"

type FilesystemAccess struct {
	Hidden   []string `yaml:"hidden"`
	ReadOnly []string `yaml:"read_only"`
}

// MCPServer describes how to launch one MCP tool server subprocess.
type MCPServer struct {
	Name    string   `yaml:"name"`
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

type Toolset struct {
	Name  string   `yaml:"name"`
	Tools []string `yaml:"tools"`
}

// Clockify holds settings for the bundled Clockify MCP server and its REST
// client. The API key is deliberately not a config field; it comes from the
// CLOCKIFY_API_KEY environment variable.
type Clockify struct {
	BaseURL string `yaml:"base_url"`
}

type Config struct {
	LLMClient   string `yaml:"llm"`
	Model       string `yaml:"model"`
	AgentName   string `yaml:"agent_name"`
	Instruction string `yaml:"instruction"`

	// ServerScript is the path to an MCP server script launched with
	// python3, mirroring the original single-server setup. Additional or
	// alternative servers go in MCPServers.
	ServerScript string      `yaml:"server_script"`
	MCPServers   []MCPServer `yaml:"mcp_servers"`

	// ToolFilter, when non-empty, restricts which MCP tools are surfaced
	// to the model. An empty filter surfaces everything.
	ToolFilter []string `yaml:"tool_filter"`

	Toolsets         []Toolset        `yaml:"toolsets"`
	AllowedCommands  []string         `yaml:"allowed_commands"`
	FilesystemAccess FilesystemAccess `yaml:"filesystem_access"`
	Clockify         Clockify         `yaml:"clockify"`
}

// LoadConfig loads configuration from the user's home directory and the current
// working directory, with the latter taking precedence.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	// The dot-directory itself is always hidden from the agent's tools.
	cfg.FilesystemAccess.Hidden = append(cfg.FilesystemAccess.Hidden, ConfigDirName, ConfigDirName+"/**")

	// Load user-level config first
	home, err := os.UserHomeDir()
	if err == nil {
		userConfigPath := filepath.Join(home, ConfigDirName, "config.yaml")
		if _, err := os.Stat(userConfigPath); err == nil {
			if err := loadFromFile(userConfigPath, cfg); err != nil {
				return nil, errors.Wrapf(err, "error loading user config")
			}
		}
	}

	// Load project-level config, overriding user-level
	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrapf(err, "could not get working directory")
	}
	projectConfigPath := filepath.Join(wd, ConfigDirName, "config.yaml")
	if _, err := os.Stat(projectConfigPath); err == nil {
		if err := loadFromFile(projectConfigPath, cfg); err != nil {
			return nil, errors.Wrapf(err, "error loading project config")
		}
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	// Unmarshal overwrites fields present in the YAML, which gives a simple
	// merge where project-level config replaces user-level.
	return yaml.Unmarshal(data, cfg)
}

// Servers returns the full list of MCP servers to launch. A configured
// ServerScript becomes a python3-launched server named "clockify", followed
// by any explicitly configured servers.
func (c *Config) Servers() []MCPServer {
	var servers []MCPServer
	if c.ServerScript != "" {
		servers = append(servers, MCPServer{
			Name:    "clockify",
			Command: "python3",
			Args:    []string{c.ServerScript},
		})
	}
	servers = append(servers, c.MCPServers...)
	return servers
}

// GetToolset finds a toolset by name. An empty name resolves to "default".
// When no toolsets are configured at all, GetToolset returns nil, meaning
// every discovered MCP tool is active.
func (c *Config) GetToolset(name string) (*Toolset, error) {
	if len(c.Toolsets) == 0 {
		return nil, nil
	}
	if name == "" {
		name = "default"
	}
	for _, ts := range c.Toolsets {
		if ts.Name == name {
			return &ts, nil
		}
	}
	if name == "default" {
		return nil, errors.New("mandatory 'default' toolset not found in configuration")
	}
	// Fall back to default if a specific toolset was requested but not found
	return c.GetToolset("default")
}
