// Package terminal implements the interactive command-line mode for the
// Clockify agent.
//
// The terminal is one of the two interaction modes:
//   - Terminal mode: interactive CLI for direct user interaction
//   - ACP mode: JSON-RPC based protocol for IDE integration
//
// It prints assistant responses, asks for tool confirmations in prompt mode,
// and honors the agent's tool verbosity setting. The session ends on EOF or
// the /quit and /exit commands.
package terminal
