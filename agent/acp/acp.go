package acp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aslamanver/mcp-clockify/agent"
	"github.com/aslamanver/mcp-clockify/session"
)

// Run starts the Agent Client Protocol server over stdio using JSON-RPC.
// It implements a minimal subset of ACP:
//   - initialize
//   - session/new
//   - session/load
//   - session/prompt (emits session/update notifications with
//     agent_message_chunk, tool_call, and tool_result)
//
// Nothing but JSON-RPC messages is written to stdout; debug output goes to
// the trace file when tracing is enabled. Messages are newline-delimited
// JSON objects.
func Run(ctx context.Context, clockifyAgent *agent.Agent, in *bufio.Reader, out *bufio.Writer, traceEnabled bool) error {
	trace := func(msg string) {}
	if traceEnabled {
		traceFile, _ := os.OpenFile("acp.trace", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if traceFile != nil {
			defer traceFile.Close()
			trace = func(msg string) {
				fmt.Fprintf(traceFile, "[%s] %s\n", time.Now().Format("15:04:05.000"), msg)
			}
		}
	}

	trace("Run: starting ACP server")
	server := &acpServer{
		ctx:      ctx,
		agent:    clockifyAgent,
		sessions: make(map[string]*session.Session),
		in:       in,
		out:      out,
		trace:    trace,
	}

	for {
		payload, err := server.readMessage()
		if err != nil {
			if err == io.EOF {
				trace("Run: EOF received, exiting")
				return nil
			}
			// If framing is broken, there isn't a safe way to continue.
			trace(fmt.Sprintf("Run: read error: %v", err))
			return fmt.Errorf("ACP: read error: %w", err)
		}
		if len(payload) == 0 {
			continue
		}

		trace(fmt.Sprintf("Run: received payload: %s", string(payload)))
		var req jsonrpcRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			trace(fmt.Sprintf("Run: JSON parse error: %v", err))
			_ = server.writeResponseError(nil, -32700, "Parse error", nil)
			continue
		}

		trace(fmt.Sprintf("Run: dispatching method: %s with ID: %v", req.Method, req.ID))
		switch req.Method {
		case "initialize":
			server.handleInitialize(&req)
		case "session/new":
			server.handleSessionNew(&req)
		case "session/load":
			server.handleSessionLoad(&req)
		case "session/prompt":
			server.handleSessionPrompt(&req)
		default:
			_ = server.writeResponseError(req.ID, -32601, "Method not found", nil)
		}
	}
}

// ---- JSON-RPC message types ----

type jsonrpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      any    `json:"id,omitempty"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type jsonrpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *jsonrpcError   `json:"error,omitempty"`
}

type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ---- acpServer ----

// acpServer holds the state of one ACP server instance: the agent, the
// sessions created or loaded over this connection, and the stdio endpoints.
type acpServer struct {
	ctx          context.Context
	agent        *agent.Agent
	sessions     map[string]*session.Session
	sessionsLock sync.Mutex
	sessionIDSeq int64

	in        *bufio.Reader
	out       *bufio.Writer
	writeLock sync.Mutex
	trace     func(string)
}

// readMessage reads a single newline-delimited JSON-RPC payload.
func (s *acpServer) readMessage() ([]byte, error) {
	line, _, err := s.in.ReadLine()
	if err != nil {
		return nil, err
	}
	return line, nil
}

// writeJSON serializes obj and writes it as one newline-delimited JSON-RPC
// message, flushing so the client sees it immediately.
func (s *acpServer) writeJSON(obj any) error {
	data, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("failed to serialize JSON-RPC message: %w", err)
	}
	s.trace(fmt.Sprintf("writeJSON: %s", string(data)))

	s.writeLock.Lock()
	defer s.writeLock.Unlock()
	if _, err := s.out.Write(data); err != nil {
		return err
	}
	if _, err := s.out.WriteString("\n"); err != nil {
		return err
	}
	return s.out.Flush()
}

func (s *acpServer) writeResponseOK(id any, result json.RawMessage) error {
	return s.writeJSON(jsonrpcResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	})
}

func (s *acpServer) writeResponseError(id any, code int, msg string, data any) error {
	s.trace(fmt.Sprintf("writeResponseError: code=%d, msg=%s, data=%+v", code, msg, data))
	return s.writeJSON(jsonrpcResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &jsonrpcError{
			Code:    code,
			Message: msg,
			Data:    data,
		},
	})
}

// writeNotification sends a JSON-RPC notification (request without an ID).
func (s *acpServer) writeNotification(method string, params any) error {
	return s.writeJSON(map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
	})
}

// decodeParams re-marshals the loosely typed params into the handler's
// concrete params struct.
func decodeParams(params any, dst any) error {
	b, err := json.Marshal(params)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

// ---- Handlers ----

// handleInitialize returns the protocol version and the agent capabilities:
// session loading is supported; audio, embedded context, and images are not.
func (s *acpServer) handleInitialize(req *jsonrpcRequest) {
	s.trace("handleInitialize: starting")

	resp := map[string]any{
		"protocolVersion": 1,
		"agentCapabilities": map[string]any{
			"loadSession": true,
			"promptCapabilities": map[string]bool{
				"audio":           false,
				"embeddedContext": false,
				"image":           false,
			},
		},
		"authMethods": []any{},
	}
	respBytes, err := json.Marshal(resp)
	if err != nil {
		s.trace(fmt.Sprintf("handleInitialize: marshal error: %v", err))
		return
	}

	_ = s.writeResponseOK(req.ID, respBytes)
}

// handleSessionNew creates a new session with a unique ID, copies the agent's
// session metadata into it, seeds it with the instruction system message, and
// returns the session ID to the client.
func (s *acpServer) handleSessionNew(req *jsonrpcRequest) {
	s.trace("handleSessionNew: starting")

	sid := s.nextSessionID()
	sess, err := session.New(sid)
	if err != nil {
		_ = s.writeResponseError(req.ID, -32603, "Internal error", fmt.Sprintf("failed to create session: %v", err))
		return
	}

	sess.Mode = s.agent.Session.Mode
	sess.Toolset = s.agent.Session.Toolset
	sess.ToolVerbosity = s.agent.Session.ToolVerbosity
	sess.Acp = s.agent.Session.Acp
	sess.AddMessage(session.Message{Role: "system", Content: s.agent.Definition.Instruction})

	s.sessionsLock.Lock()
	s.sessions[sid] = sess
	s.sessionsLock.Unlock()

	respBytes, err := json.Marshal(map[string]any{"sessionId": sid})
	if err != nil {
		s.trace(fmt.Sprintf("handleSessionNew: marshal error: %v", err))
		return
	}
	_ = s.writeResponseOK(req.ID, respBytes)
}

// handleSessionLoad loads an existing session from disk and replays the
// conversation history as session/update notifications: user_message_chunk,
// agent_message_chunk, tool_call, and tool_result. Returns null when the
// replay is complete.
func (s *acpServer) handleSessionLoad(req *jsonrpcRequest) {
	s.trace("handleSessionLoad: starting")
	var p struct {
		SessionID  string          `json:"sessionId"`
		Cwd        string          `json:"cwd"`
		McpServers json.RawMessage `json:"mcpServers"`
	}
	if err := decodeParams(req.Params, &p); err != nil {
		_ = s.writeResponseError(req.ID, -32603, "Internal error", fmt.Sprintf("params decode error: %v", err))
		return
	}

	sess, err := session.Load(p.SessionID)
	if err != nil {
		_ = s.writeResponseError(req.ID, -32602, "Invalid params", fmt.Sprintf("session not found: %v", err))
		return
	}

	// Sessions written by older builds may lack the instruction message.
	if len(sess.Messages) == 0 || sess.Messages[0].Role != "system" {
		sess.Messages = append([]session.Message{{Role: "system", Content: s.agent.Definition.Instruction}}, sess.Messages...)
	}

	s.sessionsLock.Lock()
	s.sessions[p.SessionID] = sess
	s.sessionsLock.Unlock()

	s.trace(fmt.Sprintf("handleSessionLoad: replaying %d messages", len(sess.Messages)))
	for _, msg := range sess.Messages {
		switch msg.Role {
		case "user":
			_ = s.writeNotification("session/update", map[string]any{
				"sessionId": p.SessionID,
				"update": map[string]any{
					"sessionUpdate": "user_message_chunk",
					"content": map[string]any{
						"type": "text",
						"text": msg.Content,
					},
				},
			})
		case "assistant":
			if msg.Content != "" {
				_ = s.sendAgentMessageChunk(p.SessionID, msg.Content)
			}
			for _, tc := range msg.ToolCalls {
				_ = s.sendToolCallNotification(p.SessionID, tc)
			}
		case "tool":
			// Tool results are associated with the preceding tool call.
			if len(msg.ToolCalls) > 0 {
				_ = s.sendToolResultNotification(p.SessionID, msg.ToolCalls[0].ToolCallID, msg.Content)
			}
		}
	}

	_ = s.writeResponseOK(req.ID, json.RawMessage("null"))
}

// contentBlock represents a content block in ACP prompt requests. Text and
// resource_link blocks are handled; everything else is ignored.
type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	// resource_link fields
	URI         string `json:"uri,omitempty"`
	Name        string `json:"name,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Size        *int64 `json:"size,omitempty"`
}

// handleSessionPrompt processes a prompt request for a session. It runs the
// agent's full LLM tool calling loop, streaming agent_message_chunk,
// tool_call, and tool_result notifications, then responds with
// stopReason: end_turn.
func (s *acpServer) handleSessionPrompt(req *jsonrpcRequest) {
	s.trace("handleSessionPrompt: starting")
	var p struct {
		SessionID string         `json:"sessionId"`
		Prompt    []contentBlock `json:"prompt"`
	}
	if err := decodeParams(req.Params, &p); err != nil {
		_ = s.writeResponseError(req.ID, -32603, "Internal error", fmt.Sprintf("params decode error: %v", err))
		return
	}

	s.sessionsLock.Lock()
	sess, ok := s.sessions[p.SessionID]
	s.sessionsLock.Unlock()
	if !ok {
		_ = s.writeResponseError(req.ID, -32602, "Invalid params", "unknown sessionId")
		return
	}

	userText := extractUserText(p.Prompt)
	s.trace(fmt.Sprintf("handleSessionPrompt: extracted user text: %s", userText))

	callbacks := agent.ProcessCallbacks{
		OnAssistantMessage: func(message string) {
			_ = s.sendAgentMessageChunk(p.SessionID, message)
		},
		OnToolCall: func(toolCall session.ToolCall) {
			_ = s.sendToolCallNotification(p.SessionID, toolCall)
		},
		OnToolResult: func(toolCall session.ToolCall, result string) {
			_ = s.sendToolResultNotification(p.SessionID, toolCall.ToolCallID, result)
		},
		ShouldExecuteTool: func(toolCall session.ToolCall) bool {
			// In ACP mode tools always execute; the client has no
			// confirmation channel in this subset of the protocol.
			return true
		},
		OnWarning: func(warning string) {
			s.trace(fmt.Sprintf("handleSessionPrompt: warning - %s", warning))
		},
	}

	// ProcessUserInput adds the user message to the session itself.
	s.agent.Session = sess
	if err := s.agent.ProcessUserInput(s.ctx, userText, callbacks); err != nil {
		_ = s.writeResponseError(req.ID, -32603, "Internal error", fmt.Sprintf("error processing user input: %v", err))
		return
	}

	respBytes, err := json.Marshal(map[string]any{"stopReason": "end_turn"})
	if err != nil {
		s.trace(fmt.Sprintf("handleSessionPrompt: marshal error: %v", err))
		return
	}
	_ = s.writeResponseOK(req.ID, respBytes)
}

// sendToolCallNotification emits a session/update notification for a tool
// call the agent wants to execute.
func (s *acpServer) sendToolCallNotification(sessionID string, toolCall session.ToolCall) error {
	return s.writeNotification("session/update", map[string]any{
		"sessionId": sessionID,
		"update": map[string]any{
			"sessionUpdate": "tool_call",
			"toolCall": map[string]any{
				"id":   toolCall.ToolCallID,
				"name": toolCall.Name,
				"args": toolCall.Args,
			},
		},
	})
}

// sendToolResultNotification emits a session/update notification for the
// result of an executed tool call.
func (s *acpServer) sendToolResultNotification(sessionID, toolCallID, result string) error {
	return s.writeNotification("session/update", map[string]any{
		"sessionId": sessionID,
		"update": map[string]any{
			"sessionUpdate": "tool_result",
			"toolResult": map[string]any{
				"toolCallId": toolCallID,
				"result":     result,
			},
		},
	})
}

// sendAgentMessageChunk streams a piece of agent text to the client.
func (s *acpServer) sendAgentMessageChunk(sessionID, text string) error {
	return s.writeNotification("session/update", map[string]any{
		"sessionId": sessionID,
		"update": map[string]any{
			"sessionUpdate": "agent_message_chunk",
			"content": map[string]any{
				"type": "text",
				"text": text,
			},
		},
	})
}

// nextSessionID generates a unique session ID from a timestamp and a
// per-connection sequence number.
func (s *acpServer) nextSessionID() string {
	s.sessionIDSeq++
	return fmt.Sprintf("sess_%d_%d", time.Now().UnixNano(), s.sessionIDSeq)
}

// readFileFromURI attempts to read file contents from a file:// URI.
func readFileFromURI(uri string) (string, error) {
	parsedURL, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("invalid URI: %v", err)
	}

	if parsedURL.Scheme != "file" {
		return "", fmt.Errorf("unsupported URI scheme: %s", parsedURL.Scheme)
	}

	content, err := os.ReadFile(parsedURL.Path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %v", err)
	}

	return string(content), nil
}

// extractUserText concatenates the text content of the prompt blocks.
// resource_link blocks are expanded into a metadata header plus the file
// contents for file:// URIs (truncated at 50KB).
func extractUserText(blocks []contentBlock) string {
	var parts []string
	for _, b := range blocks {
		switch b.Type {
		case "text":
			if strings.TrimSpace(b.Text) != "" {
				parts = append(parts, b.Text)
			}
		case "resource_link":
			resourceInfo := fmt.Sprintf("=== Resource: %s ===\n", b.Name)

			if b.Title != "" {
				resourceInfo += fmt.Sprintf("Title: %s\n", b.Title)
			}
			if b.Description != "" {
				resourceInfo += fmt.Sprintf("Description: %s\n", b.Description)
			}
			resourceInfo += fmt.Sprintf("URI: %s\n", b.URI)
			if b.MimeType != "" {
				resourceInfo += fmt.Sprintf("Type: %s\n", b.MimeType)
			}
			if b.Size != nil {
				resourceInfo += fmt.Sprintf("Size: %d bytes\n", *b.Size)
			}

			if strings.HasPrefix(b.URI, "file://") {
				content, err := readFileFromURI(b.URI)
				if err != nil {
					resourceInfo += fmt.Sprintf("\n[Error reading file: %v]\n", err)
				} else {
					const maxContentSize = 50000 // inline content cap
					if len(content) > maxContentSize {
						content = content[:maxContentSize] + "\n\n[... truncated to 50KB ...]"
					}
					resourceInfo += fmt.Sprintf("\n--- File Contents ---\n%s\n--- End of File ---\n", content)
				}
			} else {
				resourceInfo += "\n[External resource - content not available]\n"
			}

			resourceInfo += "=== End Resource ===\n"
			parts = append(parts, resourceInfo)
		}
	}
	return strings.Join(parts, "\n")
}
