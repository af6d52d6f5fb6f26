package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/aslamanver/mcp-clockify/errors"
	"github.com/aslamanver/mcp-clockify/session"
	"github.com/aslamanver/mcp-clockify/tools"
)

// GeminiLLMClient is a client for the Google Gemini API. It is the default
// backend; the agent definition targets gemini-2.0-flash.
type GeminiLLMClient struct {
	model *genai.GenerativeModel
}

// NewGeminiLLMClient creates a new GeminiLLMClient.
// It requires the GEMINI_API_KEY environment variable to be set.
func NewGeminiLLMClient(ctx context.Context, modelName string) (*GeminiLLMClient, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create genai client")
	}

	return &GeminiLLMClient{
		model: client.GenerativeModel(modelName),
	}, nil
}

// Chat sends a chat request to the Gemini API. A leading "system" message in
// the history becomes the model's system instruction rather than a turn.
func (g *GeminiLLMClient) Chat(ctx context.Context, messages []session.Message, availableTools []tools.Tool) (*session.Message, error) {
	instruction, rest := splitSystemInstruction(messages)
	if instruction != "" {
		g.model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(instruction)},
		}
	}
	g.model.Tools = convertToolsToGeminiTools(availableTools)

	history := convertMessagesToGeminiContent(rest)
	if len(history) == 0 {
		return nil, errors.New("no messages to send to Gemini")
	}

	// The last message is the new prompt.
	lastMessage := history[len(history)-1]

	chatSession := g.model.StartChat()
	chatSession.History = history[:len(history)-1]
	resp, err := chatSession.SendMessage(ctx, lastMessage.Parts...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to send message to Gemini")
	}

	return processGeminiResponse(resp)
}

// splitSystemInstruction peels a leading system message off the history.
func splitSystemInstruction(messages []session.Message) (string, []session.Message) {
	if len(messages) > 0 && messages[0].Role == "system" {
		return messages[0].Content, messages[1:]
	}
	return "", messages
}

// convertMessagesToGeminiContent converts our internal message format to Gemini's.
func convertMessagesToGeminiContent(messages []session.Message) []*genai.Content {
	var contents []*genai.Content
	for _, msg := range messages {
		switch msg.Role {
		case "assistant":
			parts := []genai.Part{}
			if msg.Content != "" {
				parts = append(parts, genai.Text(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				parts = append(parts, genai.FunctionCall{Name: tc.Name, Args: tc.Args})
			}
			contents = append(contents, &genai.Content{Role: "model", Parts: parts})
		case "tool":
			// Tool results go back to the model as function responses in a
			// user turn.
			if len(msg.ToolCalls) != 1 {
				continue
			}
			contents = append(contents, &genai.Content{
				Role: "user",
				Parts: []genai.Part{genai.FunctionResponse{
					Name:     msg.ToolCalls[0].Name,
					Response: map[string]any{"result": msg.Content},
				}},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.Text(msg.Content)},
			})
		}
	}
	return contents
}

// convertToolsToGeminiTools converts our Tool interface to Gemini's
// FunctionDeclaration format. Every tool takes a generic map of
// string-to-any arguments nested under an "args" key; MCP servers validate
// the real schema on their side.
func convertToolsToGeminiTools(ts []tools.Tool) []*genai.Tool {
	if len(ts) == 0 {
		return nil
	}
	var funcDecls []*genai.FunctionDeclaration
	for _, tool := range ts {
		funcDecls = append(funcDecls, &genai.FunctionDeclaration{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"args": {
						Type:        genai.TypeObject,
						Description: "Arguments for the function call, as a map.",
					},
				},
				Required: []string{"args"},
			},
		})
	}
	return []*genai.Tool{{FunctionDeclarations: funcDecls}}
}

// processGeminiResponse converts a Gemini API response into our internal
// session.Message format. Function calls are surfaced as ToolCalls for the
// agent loop to execute; they are not executed here.
func processGeminiResponse(resp *genai.GenerateContentResponse) (*session.Message, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("received an empty response from Gemini")
	}

	var responseContent string
	var toolCalls []session.ToolCall

	for _, part := range resp.Candidates[0].Content.Parts {
		switch v := part.(type) {
		case genai.Text:
			responseContent += string(v)
		case genai.FunctionCall:
			args := v.Args
			// As defined in convertToolsToGeminiTools the real arguments
			// are nested under an "args" key.
			if nested, ok := v.Args["args"].(map[string]interface{}); ok {
				args = nested
			}
			toolCalls = append(toolCalls, session.ToolCall{
				ToolCallID: fmt.Sprintf("call_%d_%s", len(toolCalls), v.Name),
				Name:       v.Name,
				Args:       args,
			})
		default:
			return nil, errors.New("unsupported part type in Gemini response: %T", v)
		}
	}

	return &session.Message{
		Role:      "assistant",
		Content:   responseContent,
		ToolCalls: toolCalls,
	}, nil
}
