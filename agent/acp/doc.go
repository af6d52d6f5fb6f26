// Package acp implements Agent Client Protocol (ACP) support for the
// Clockify agent, so code editors like Zed can drive it over JSON-RPC on
// stdio with newline-delimited framing.
//
// Supported methods:
//   - initialize: returns protocol version and capabilities
//   - session/new: creates a new session
//   - session/load: loads a session from disk and replays its history
//   - session/prompt: processes a prompt through the agent loop
//
// The server emits session/update notifications carrying
// agent_message_chunk, tool_call, and tool_result updates while a prompt is
// being processed.
package acp
