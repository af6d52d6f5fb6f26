package agent

import (
	"context"
	"testing"

	"github.com/aslamanver/mcp-clockify/config"
	"github.com/aslamanver/mcp-clockify/llm"
	"github.com/aslamanver/mcp-clockify/session"
	"github.com/aslamanver/mcp-clockify/tools"
)

// scriptedLLM returns a fixed sequence of responses, one per Chat call.
type scriptedLLM struct {
	responses []*session.Message
	calls     int
}

func (s *scriptedLLM) Chat(ctx context.Context, messages []session.Message, availableTools []tools.Tool) (*session.Message, error) {
	if s.calls >= len(s.responses) {
		return &session.Message{Role: "assistant", Content: "done"}, nil
	}
	resp := s.responses[s.calls]
	s.calls++
	return resp, nil
}

// echoTool records its invocations and echoes the "value" argument.
type echoTool struct {
	invocations int
}

func (e *echoTool) Name() string        { return "echo" }
func (e *echoTool) Description() string { return "Echoes the 'value' argument." }
func (e *echoTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	e.invocations++
	value, _ := args["value"].(string)
	return "echo: " + value, nil
}

func newTestAgent(t *testing.T, client llm.LLMClient, activeTools []tools.Tool) *Agent {
	t.Helper()
	t.Chdir(t.TempDir())

	sess, err := session.New("test-session")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	sess.AddMessage(session.Message{Role: "system", Content: DefaultInstruction})

	return &Agent{
		Definition:     DefaultDefinition("/opt/clockify/server.py"),
		Config:         &config.Config{},
		Session:        sess,
		LLMClient:      client,
		AvailableTools: activeTools,
		Mode:           ModeAuto,
		Verbosity:      ToolVerbosityNone,
	}
}

func TestProcessUserInputPlainAnswer(t *testing.T) {
	client := &scriptedLLM{responses: []*session.Message{
		{Role: "assistant", Content: "Hello!"},
	}}
	a := newTestAgent(t, client, nil)

	var got string
	callbacks := ProcessCallbacks{
		OnAssistantMessage: func(message string) { got = message },
	}

	if err := a.ProcessUserInput(context.Background(), "hi", callbacks); err != nil {
		t.Fatalf("ProcessUserInput failed: %v", err)
	}
	if got != "Hello!" {
		t.Errorf("Expected assistant message 'Hello!', got '%s'", got)
	}
	// system + user + assistant
	if len(a.Session.Messages) != 3 {
		t.Errorf("Expected 3 messages in session, got %d", len(a.Session.Messages))
	}
}

func TestProcessUserInputToolLoop(t *testing.T) {
	tool := &echoTool{}
	call := session.ToolCall{
		ToolCallID: "call_1",
		Name:       "echo",
		Args:       map[string]interface{}{"value": "42"},
	}
	client := &scriptedLLM{responses: []*session.Message{
		{Role: "assistant", ToolCalls: []session.ToolCall{call}},
		{Role: "assistant", Content: "The echo said 42."},
	}}
	a := newTestAgent(t, client, []tools.Tool{tool})

	var toolResults []string
	callbacks := ProcessCallbacks{
		OnToolResult: func(tc session.ToolCall, result string) {
			toolResults = append(toolResults, result)
		},
	}

	if err := a.ProcessUserInput(context.Background(), "echo 42", callbacks); err != nil {
		t.Fatalf("ProcessUserInput failed: %v", err)
	}

	if tool.invocations != 1 {
		t.Errorf("Expected 1 tool invocation, got %d", tool.invocations)
	}
	if len(toolResults) != 1 || toolResults[0] != "echo: 42" {
		t.Errorf("Unexpected tool results: %v", toolResults)
	}
	if client.calls != 2 {
		t.Errorf("Expected 2 LLM calls, got %d", client.calls)
	}

	// The tool result must be recorded with role "tool" and carry the call.
	var toolMsg *session.Message
	for i := range a.Session.Messages {
		if a.Session.Messages[i].Role == "tool" {
			toolMsg = &a.Session.Messages[i]
		}
	}
	if toolMsg == nil {
		t.Fatal("Expected a tool message in the session history")
	}
	if len(toolMsg.ToolCalls) != 1 || toolMsg.ToolCalls[0].ToolCallID != "call_1" {
		t.Errorf("Tool message does not reference the tool call: %+v", toolMsg)
	}
}

func TestProcessUserInputDeclinedTool(t *testing.T) {
	tool := &echoTool{}
	call := session.ToolCall{ToolCallID: "call_1", Name: "echo", Args: map[string]interface{}{"value": "42"}}
	client := &scriptedLLM{responses: []*session.Message{
		{Role: "assistant", ToolCalls: []session.ToolCall{call}},
		{Role: "assistant", Content: "Understood."},
	}}
	a := newTestAgent(t, client, []tools.Tool{tool})
	a.Mode = ModePrompt

	callbacks := ProcessCallbacks{
		ShouldExecuteTool: func(tc session.ToolCall) bool { return false },
	}

	if err := a.ProcessUserInput(context.Background(), "echo 42", callbacks); err != nil {
		t.Fatalf("ProcessUserInput failed: %v", err)
	}
	if tool.invocations != 0 {
		t.Errorf("Declined tool was executed %d times", tool.invocations)
	}
}

func TestProcessUserInputUnknownTool(t *testing.T) {
	call := session.ToolCall{ToolCallID: "call_1", Name: "missing", Args: map[string]interface{}{}}
	client := &scriptedLLM{responses: []*session.Message{
		{Role: "assistant", ToolCalls: []session.ToolCall{call}},
		{Role: "assistant", Content: "Sorry."},
	}}
	a := newTestAgent(t, client, nil)

	var result string
	callbacks := ProcessCallbacks{
		OnToolResult: func(tc session.ToolCall, r string) { result = r },
	}

	if err := a.ProcessUserInput(context.Background(), "do it", callbacks); err != nil {
		t.Fatalf("ProcessUserInput failed: %v", err)
	}
	if result == "" {
		t.Fatal("Expected an error result for the unknown tool")
	}
}
