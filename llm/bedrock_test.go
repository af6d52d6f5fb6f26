package llm

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aslamanver/mcp-clockify/session"
	"github.com/aslamanver/mcp-clockify/tools"
)

// MockTool is a simple mock tool for testing
type MockTool struct {
	name        string
	description string
}

func (m *MockTool) Name() string {
	return m.name
}

func (m *MockTool) Description() string {
	return m.description
}

func (m *MockTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	return "mock result", nil
}

func TestConvertMessagesToAnthropicFormat(t *testing.T) {
	// Test user message
	messages := []session.Message{
		{
			Role:    "user",
			Content: "Start a timer for the standup",
		},
	}

	result, _ := convertMessagesToAnthropicFormat(messages)
	if len(result) != 1 {
		t.Errorf("Expected 1 message, got %d", len(result))
	}
	if result[0]["role"] != "user" {
		t.Errorf("Expected role 'user', got '%s'", result[0]["role"])
	}

	// Test assistant message with content
	messages = []session.Message{
		{
			Role:    "assistant",
			Content: "Timer started.",
		},
	}

	result, _ = convertMessagesToAnthropicFormat(messages)
	if len(result) != 1 {
		t.Errorf("Expected 1 message, got %d", len(result))
	}
	if result[0]["role"] != "assistant" {
		t.Errorf("Expected role 'assistant', got '%s'", result[0]["role"])
	}

	// Test assistant message with tool calls
	messages = []session.Message{
		{
			Role: "assistant",
			ToolCalls: []session.ToolCall{
				{
					ToolCallID: "call_1",
					Name:       "start_timer",
					Args: map[string]interface{}{
						"workspace_id": "w1",
					},
				},
			},
		},
	}

	result, _ = convertMessagesToAnthropicFormat(messages)
	if len(result) != 1 {
		t.Errorf("Expected 1 message, got %d", len(result))
	}

	// Test tool response message
	messages = []session.Message{
		{
			Role:    "tool",
			Content: "Timer started at 09:00",
			ToolCalls: []session.ToolCall{
				{
					ToolCallID: "call_1",
					Name:       "start_timer",
				},
			},
		},
	}

	result, _ = convertMessagesToAnthropicFormat(messages)
	if len(result) != 1 {
		t.Errorf("Expected 1 message, got %d", len(result))
	}
	if result[0]["role"] != "user" {
		t.Errorf("Expected role 'user', got '%s'", result[0]["role"])
	}

	// System messages become the out-of-band system prompt
	messages = []session.Message{
		{Role: "system", Content: "You are a Clockify agent."},
		{Role: "user", Content: "hello"},
	}
	result, systemPrompt := convertMessagesToAnthropicFormat(messages)
	if len(result) != 1 {
		t.Errorf("Expected 1 message, got %d", len(result))
	}
	if systemPrompt != "You are a Clockify agent." {
		t.Errorf("Unexpected system prompt: %s", systemPrompt)
	}
}

func TestCreateAnthropicRequest(t *testing.T) {
	messages := []map[string]interface{}{
		{
			"role": "user",
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": "Hello!",
				},
			},
		},
	}

	// Test with no tools
	body, err := createAnthropicRequest(messages, "", nil)
	if err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if len(body) == 0 {
		t.Error("Expected non-empty request body")
	}

	// Test with tools and a system prompt
	toolList := []tools.Tool{
		&MockTool{
			name:        "start_timer",
			description: "Starts a timer",
		},
	}

	body, err = createAnthropicRequest(messages, "You are a Clockify agent.", toolList)
	if err != nil {
		t.Errorf("Unexpected error: %v", err)
	}

	var request map[string]interface{}
	if err := json.Unmarshal(body, &request); err != nil {
		t.Fatalf("Request body is not valid JSON: %v", err)
	}
	if request["system"] != "You are a Clockify agent." {
		t.Errorf("Unexpected system prompt in request: %v", request["system"])
	}
	if _, ok := request["tools"]; !ok {
		t.Error("Expected tools in request body")
	}
}

func TestProcessBedrockResponse(t *testing.T) {
	body := []byte(`{
		"content": [
			{"type": "text", "text": "Starting your timer. "},
			{"type": "tool_use", "id": "toolu_1", "name": "start_timer", "input": {"workspace_id": "w1"}}
		]
	}`)

	msg, err := processBedrockResponse(body)
	if err != nil {
		t.Fatalf("processBedrockResponse failed: %v", err)
	}
	if msg.Content != "Starting your timer. " {
		t.Errorf("Unexpected content: %s", msg.Content)
	}
	if len(msg.ToolCalls) != 1 {
		t.Fatalf("Expected 1 tool call, got %d", len(msg.ToolCalls))
	}
	if msg.ToolCalls[0].ToolCallID != "toolu_1" || msg.ToolCalls[0].Name != "start_timer" {
		t.Errorf("Unexpected tool call: %+v", msg.ToolCalls[0])
	}

	// API errors surface as errors
	if _, err := processBedrockResponse([]byte(`{"error": "throttled"}`)); err == nil {
		t.Error("Expected error for error response")
	}
}
