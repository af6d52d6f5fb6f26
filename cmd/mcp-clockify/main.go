package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aslamanver/mcp-clockify/agent"
	"github.com/aslamanver/mcp-clockify/agent/acp"
	"github.com/aslamanver/mcp-clockify/agent/terminal"
	"github.com/aslamanver/mcp-clockify/config"
	"github.com/aslamanver/mcp-clockify/llm"
	"github.com/aslamanver/mcp-clockify/session"
)

func main() {
	modeFlag := flag.String("m", "", "Execution mode: 'auto' or 'prompt'")
	sessionFlag := flag.String("s", "", "Session name to create or use")
	toolsetFlag := flag.String("t", "", "Toolset to use (defaults to 'default')")
	resumeFlag := flag.String("r", "", "Resume a session by name")
	toolVerbosityFlag := flag.String("tool-verbosity", "", "Tool verbosity level: 'none', 'info', or 'all'")
	acpFlag := flag.Bool("acp", false, "Enable Agent Client Protocol support")
	traceFlag := flag.Bool("trace", false, "Enable execution tracing to troubleshoot issues")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %+v\n", err)
		os.Exit(1)
	}

	var sess *session.Session
	sessionName := *sessionFlag

	if *resumeFlag != "" {
		sessionName = *resumeFlag
		sess, err = session.Load(sessionName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error resuming session '%s': %+v\n", sessionName, err)
			os.Exit(1)
		}
		fmt.Printf("Resuming session: %s\n", sessionName)
		// Apply session flags if not explicitly overridden by the user
		if *modeFlag == "" && sess.Mode != "" {
			*modeFlag = sess.Mode
		}
		if *toolsetFlag == "" && sess.Toolset != "" {
			*toolsetFlag = sess.Toolset
		}
		if *toolVerbosityFlag == "" && sess.ToolVerbosity != "" {
			*toolVerbosityFlag = sess.ToolVerbosity
		}
	} else {
		if sessionName == "" {
			sessionName = defaultSessionName()
		}
		sess, err = session.New(sessionName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating session '%s': %+v\n", sessionName, err)
			os.Exit(1)
		}
		fmt.Printf("Starting new session: %s\n", sessionName)
	}

	if *modeFlag == "" {
		*modeFlag = "prompt"
	}
	if *toolVerbosityFlag == "" {
		*toolVerbosityFlag = "none"
	}

	// Remember current flag values in the session
	sess.Mode = *modeFlag
	sess.Toolset = *toolsetFlag
	sess.ToolVerbosity = *toolVerbosityFlag
	sess.Acp = *acpFlag
	if err := sess.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving session '%s': %+v\n", sessionName, err)
		os.Exit(1)
	}

	var opMode agent.Mode
	switch *modeFlag {
	case "auto":
		opMode = agent.ModeAuto
	case "prompt":
		opMode = agent.ModePrompt
	default:
		fmt.Fprintf(os.Stderr, "Invalid mode '%s'. Must be 'auto' or 'prompt'.\n", *modeFlag)
		os.Exit(1)
	}

	ctx := context.Background()

	model := cfg.Model
	if model == "" {
		model = agent.DefaultModel
	}

	// Initialize the LLM client; Gemini is the default backend.
	var client llm.LLMClient
	switch cfg.LLMClient {
	case "gemini", "":
		client, err = llm.NewGeminiLLMClient(ctx, model)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error initializing Gemini client: %+v\n", err)
			os.Exit(1)
		}
	case "openai":
		client, err = llm.NewOpenAILLMClient(ctx, model)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error initializing OpenAI client: %+v\n", err)
			os.Exit(1)
		}
	case "bedrock":
		client, err = llm.NewBedrockLLMClient(ctx, model)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error initializing Bedrock client: %+v\n", err)
			os.Exit(1)
		}
	case "anthropic":
		client, err = llm.NewAnthropicLLMClient(ctx, model)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error initializing Anthropic client: %+v\n", err)
			os.Exit(1)
		}
	case "mock":
		client = &llm.MockLLMClient{}
	default:
		fmt.Fprintf(os.Stderr, "Unknown llm '%s'. Must be 'gemini', 'openai', 'anthropic', 'bedrock', or 'mock'.\n", cfg.LLMClient)
		os.Exit(1)
	}

	var verbosity agent.ToolVerbosity
	switch *toolVerbosityFlag {
	case "none":
		verbosity = agent.ToolVerbosityNone
	case "info":
		verbosity = agent.ToolVerbosityInfo
	case "all":
		verbosity = agent.ToolVerbosityAll
	default:
		fmt.Fprintf(os.Stderr, "Invalid tool verbosity '%s'. Must be 'none', 'info', or 'all'.\n", *toolVerbosityFlag)
		os.Exit(1)
	}

	clockifyAgent, err := agent.New(ctx, cfg, sess, *toolsetFlag, opMode, client, verbosity)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing agent: %+v\n", err)
		os.Exit(1)
	}
	defer clockifyAgent.Close()

	if *acpFlag {
		// stdout is reserved for JSON-RPC in ACP mode.
		fmt.Fprintln(os.Stderr, "Starting mcp-clockify in ACP mode...")
		in := bufio.NewReader(os.Stdin)
		out := bufio.NewWriter(os.Stdout)
		if err := acp.Run(ctx, clockifyAgent, in, out, *traceFlag); err != nil {
			fmt.Fprintf(os.Stderr, "ACP mode failed: %+v\n", err)
			os.Exit(1)
		}
	} else {
		initialPrompt := strings.Join(flag.Args(), " ")

		fmt.Printf("%s is ready. Type your prompt.\n", clockifyAgent.Definition.Name)
		term := terminal.New(clockifyAgent)
		if err := term.Run(ctx, initialPrompt); err != nil {
			fmt.Fprintf(os.Stderr, "Agent stopped with an error: %+v\n", err)
			os.Exit(1)
		}
	}
}

func defaultSessionName() string {
	wd, err := os.Getwd()
	if err != nil {
		wd = "clockify"
	}
	dirName := filepath.Base(wd)
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return fmt.Sprintf("%s_%s", dirName, timestamp)
}
