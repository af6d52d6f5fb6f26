package llm

import (
	"context"
	"fmt"

	"github.com/aslamanver/mcp-clockify/session"
	"github.com/aslamanver/mcp-clockify/tools"
)

// LLMClient is the interface for interacting with a Large Language Model.
type LLMClient interface {
	Chat(ctx context.Context, messages []session.Message, availableTools []tools.Tool) (*session.Message, error)
}

// MockLLMClient is a stand-in backend used by tests and when no real backend
// is configured. It parrots back the last user message and never calls tools.
type MockLLMClient struct{}

func (m *MockLLMClient) Chat(ctx context.Context, messages []session.Message, availableTools []tools.Tool) (*session.Message, error) {
	lastUserMessage := ""
	if len(messages) > 0 {
		lastUserMessage = messages[len(messages)-1].Content
	}
	return &session.Message{
		Role:    "assistant",
		Content: fmt.Sprintf("I am a mock LLM. You said: '%s'. I cannot use tools.", lastUserMessage),
	}, nil
}
