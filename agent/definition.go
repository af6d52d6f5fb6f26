package agent

import (
	"github.com/aslamanver/mcp-clockify/config"
	"github.com/aslamanver/mcp-clockify/errors"
)

// Defaults for the Clockify agent. Config can override each of these; absent
// any config the agent is exactly the stock Clockify agent.
const (
	DefaultModel       = "gemini-2.0-flash"
	DefaultName        = "clockify_agent"
	DefaultInstruction = "You are a Clockify agent that can interact with the Clockify MCP server to manage time tracking tasks."
)

// PlaceholderServerScript is the script path shipped in example configs. It
// is not a functioning default; Validate rejects it so an unconfigured agent
// fails up front instead of at subprocess launch.
const PlaceholderServerScript = "/path/server.py"

// ServerSpec describes how one MCP tool server is launched.
type ServerSpec struct {
	Name    string
	Command string
	Args    []string
}

// Definition is the declarative description of the agent: which model to
// use, who the agent is, what it is told to do, and where its tools come
// from. It is built once at startup and never mutated.
type Definition struct {
	Model       string
	Name        string
	Instruction string
	Servers     []ServerSpec
}

// DefaultDefinition returns the stock Clockify agent definition: the Gemini
// flash model, the clockify_agent identity, and a single MCP server launched
// as "python3 <scriptPath>".
func DefaultDefinition(scriptPath string) Definition {
	return Definition{
		Model:       DefaultModel,
		Name:        DefaultName,
		Instruction: DefaultInstruction,
		Servers: []ServerSpec{{
			Name:    "clockify",
			Command: "python3",
			Args:    []string{scriptPath},
		}},
	}
}

// DefinitionFromConfig builds the agent definition from loaded configuration,
// falling back to the stock defaults for any field the operator left unset.
func DefinitionFromConfig(cfg *config.Config) Definition {
	def := Definition{
		Model:       cfg.Model,
		Name:        cfg.AgentName,
		Instruction: cfg.Instruction,
	}
	if def.Model == "" {
		def.Model = DefaultModel
	}
	if def.Name == "" {
		def.Name = DefaultName
	}
	if def.Instruction == "" {
		def.Instruction = DefaultInstruction
	}
	for _, srv := range cfg.Servers() {
		def.Servers = append(def.Servers, ServerSpec{
			Name:    srv.Name,
			Command: srv.Command,
			Args:    srv.Args,
		})
	}
	return def
}

// Validate checks that the definition can actually be run. The server script
// path is operator-supplied configuration; the placeholder from example
// configs and empty launch specs are rejected here rather than surfacing as
// a confusing subprocess error later.
func (d Definition) Validate() error {
	if d.Model == "" {
		return errors.New("agent definition has no model")
	}
	if d.Name == "" {
		return errors.New("agent definition has no name")
	}
	if len(d.Servers) == 0 {
		return errors.New("no MCP servers configured: set server_script or mcp_servers in config")
	}
	for _, srv := range d.Servers {
		if srv.Command == "" {
			return errors.New("MCP server '%s' has no launch command", srv.Name)
		}
		for _, arg := range srv.Args {
			if arg == PlaceholderServerScript {
				return errors.New("MCP server '%s' still points at the placeholder script path %s: edit your config", srv.Name, PlaceholderServerScript)
			}
		}
	}
	return nil
}
