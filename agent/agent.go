package agent

import (
	"context"
	"fmt"

	"github.com/aslamanver/mcp-clockify/config"
	"github.com/aslamanver/mcp-clockify/errors"
	"github.com/aslamanver/mcp-clockify/llm"
	"github.com/aslamanver/mcp-clockify/session"
	"github.com/aslamanver/mcp-clockify/tools"
)

type Mode string

const (
	ModeAuto   Mode = "auto"
	ModePrompt Mode = "prompt"
)

type ToolVerbosity string

const (
	ToolVerbosityNone ToolVerbosity = "none"
	ToolVerbosityInfo ToolVerbosity = "info"
	ToolVerbosityAll  ToolVerbosity = "all"
)

// ProcessCallbacks lets each interaction mode (terminal, ACP) decide how
// agent events are surfaced. Nil callbacks are skipped; a nil
// ShouldExecuteTool means tools always run.
type ProcessCallbacks struct {
	OnAssistantMessage func(message string)
	OnToolCall         func(toolCall session.ToolCall)
	OnToolResult       func(toolCall session.ToolCall, result string)
	ShouldExecuteTool  func(toolCall session.ToolCall) bool
	OnWarning          func(warning string)
}

// Agent pairs a language model backend with the Clockify instruction and the
// tools discovered from the configured MCP servers.
type Agent struct {
	Definition     Definition
	Config         *config.Config
	Session        *session.Session
	LLMClient      llm.LLMClient
	Registry       *tools.ToolRegistry
	AvailableTools []tools.Tool
	Mode           Mode
	Verbosity      ToolVerbosity
}

// New builds the agent: it validates the definition, launches the configured
// MCP servers, resolves the active toolset, and seeds a fresh session with
// the agent's instruction as a system message.
func New(ctx context.Context, cfg *config.Config, sess *session.Session, toolset string, mode Mode, client llm.LLMClient, verbosity ToolVerbosity) (*Agent, error) {
	def := DefinitionFromConfig(cfg)
	if err := def.Validate(); err != nil {
		return nil, err
	}

	registry, err := tools.NewToolRegistry(ctx, cfg)
	if err != nil {
		return nil, err
	}

	ts, err := cfg.GetToolset(toolset)
	if err != nil {
		registry.Close()
		return nil, err
	}
	activeTools, err := registry.GetActiveTools(ts)
	if err != nil {
		registry.Close()
		return nil, err
	}

	if len(sess.Messages) == 0 {
		sess.AddMessage(session.Message{Role: "system", Content: def.Instruction})
	}

	return &Agent{
		Definition:     def,
		Config:         cfg,
		Session:        sess,
		LLMClient:      client,
		Registry:       registry,
		AvailableTools: activeTools,
		Mode:           mode,
		Verbosity:      verbosity,
	}, nil
}

// Close stops the MCP server subprocesses.
func (a *Agent) Close() error {
	if a.Registry == nil {
		return nil
	}
	return a.Registry.Close()
}

// ProcessUserInput runs one user turn through the LLM -> tool -> LLM loop
// until the model answers without requesting tools. The session is saved at
// the end of the turn; a save failure is a warning, not a turn failure.
func (a *Agent) ProcessUserInput(ctx context.Context, userInput string, callbacks ProcessCallbacks) error {
	a.Session.AddMessage(session.Message{Role: "user", Content: userInput})

	for {
		assistantResponse, err := a.LLMClient.Chat(ctx, a.Session.Messages, a.AvailableTools)
		if err != nil {
			return errors.Wrapf(err, "LLM chat failed")
		}

		a.Session.AddMessage(*assistantResponse)
		if assistantResponse.Content != "" && callbacks.OnAssistantMessage != nil {
			callbacks.OnAssistantMessage(assistantResponse.Content)
		}

		if len(assistantResponse.ToolCalls) == 0 {
			break
		}

		for _, toolCall := range assistantResponse.ToolCalls {
			if callbacks.OnToolCall != nil {
				callbacks.OnToolCall(toolCall)
			}

			result := a.executeToolCall(ctx, toolCall, callbacks)

			if callbacks.OnToolResult != nil {
				callbacks.OnToolResult(toolCall, result)
			}
			a.Session.AddMessage(session.Message{
				Role:      "tool",
				Content:   result,
				ToolCalls: []session.ToolCall{toolCall},
			})
		}
	}

	if err := a.Session.Save(); err != nil && callbacks.OnWarning != nil {
		callbacks.OnWarning(fmt.Sprintf("failed to save session: %v", err))
	}

	return nil
}

// executeToolCall runs a single tool call, honoring the confirmation
// callback in prompt mode. Failures are reported back to the model as the
// tool result rather than aborting the turn.
func (a *Agent) executeToolCall(ctx context.Context, toolCall session.ToolCall, callbacks ProcessCallbacks) string {
	if callbacks.ShouldExecuteTool != nil && !callbacks.ShouldExecuteTool(toolCall) {
		return fmt.Sprintf("Tool call '%s' was declined by the user.", toolCall.Name)
	}

	tool, ok := a.findTool(toolCall.Name)
	if !ok {
		return fmt.Sprintf("Error: model requested to call unavailable tool '%s'", toolCall.Name)
	}

	result, err := tool.Execute(ctx, toolCall.Args)
	if err != nil {
		return fmt.Sprintf("Error executing tool '%s': %v", toolCall.Name, err)
	}
	return result
}

func (a *Agent) findTool(name string) (tools.Tool, bool) {
	for _, t := range a.AvailableTools {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}
