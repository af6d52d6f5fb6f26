// Package agent implements the Clockify agent core: a declarative agent
// definition (model, name, instruction, MCP tool servers) plus the processing
// loop shared by the interaction modes.
//
// # Architecture
//
// The agent package is organized into three parts:
//
//   - Core agent (this package): the Definition record, the Agent type, and
//     the LLM/tool processing loop
//   - Terminal subpackage (agent/terminal): the interactive CLI mode
//   - ACP subpackage (agent/acp): the Agent Client Protocol server for IDE
//     integration
//
// # Definition
//
// Definition is the declarative heart of the system. DefaultDefinition gives
// the stock setup: model gemini-2.0-flash, name clockify_agent, the Clockify
// instruction, and one MCP server launched as a python3 subprocess. Config
// can override the model, identity, instruction, and server list; the
// bundled Go server (cmd/clockify-mcp) is one such alternative server.
//
// The script path for the default server is operator-supplied. The
// placeholder value found in example configs fails validation, so a
// misconfigured agent is rejected at startup.
//
// # Processing
//
// ProcessUserInput appends the user message to the session and loops
// LLM -> tool -> LLM until the model stops requesting tools. Events are
// delivered through ProcessCallbacks, which lets the terminal print to
// stdout while the ACP server emits JSON-RPC notifications from the same
// loop.
//
// # Modes
//
//   - ModeAuto: tools are executed without confirmation
//   - ModePrompt: tool execution is gated by the ShouldExecuteTool callback
//
// # Tool verbosity
//
//   - ToolVerbosityNone: no tool execution details
//   - ToolVerbosityInfo: tool names only
//   - ToolVerbosityAll: names, arguments, and results
package agent
