package tools

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/aslamanver/mcp-clockify/config"
	"github.com/aslamanver/mcp-clockify/errors"
)

// Built-in tools registered alongside the MCP servers. The stock Clockify
// setup runs on MCP tools alone; these only become active when a toolset
// names them, e.g. to let the agent read a notes file and log time against
// it.

// stringArg extracts a required string argument from a tool call.
func stringArg(args map[string]interface{}, key string) (string, error) {
	v, ok := args[key].(string)
	if !ok || v == "" {
		return "", errors.New("missing or invalid '%s' argument", key)
	}
	return v, nil
}

// guardPath enforces the filesystem access rules: hidden paths are never
// touched, read-only paths additionally refuse writes.
func guardPath(path string, fs *config.FilesystemAccess, write bool) error {
	hidden, err := isPathRestricted(path, fs.Hidden)
	if err != nil {
		return err
	}
	if hidden {
		return errors.New("access denied: path '%s' is hidden", path)
	}
	if !write {
		return nil
	}
	readOnly, err := isPathRestricted(path, fs.ReadOnly)
	if err != nil {
		return err
	}
	if readOnly {
		return errors.New("access denied: path '%s' is read-only", path)
	}
	return nil
}

// ReadFileTool returns the content of a file, subject to the hidden-path
// rules.
type ReadFileTool struct {
	fsAccess *config.FilesystemAccess
}

func (t *ReadFileTool) Name() string { return "read_file" }

func (t *ReadFileTool) Description() string {
	return "Reads a file and returns its full content. Args: path (string)."
}

func (t *ReadFileTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	path, err := stringArg(args, "path")
	if err != nil {
		return "", err
	}
	if err := guardPath(path, t.fsAccess, false); err != nil {
		return "", err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read file '%s'", path)
	}
	return string(content), nil
}

// WriteFileTool replaces the content of a file, subject to the hidden and
// read-only path rules.
type WriteFileTool struct {
	fsAccess *config.FilesystemAccess
}

func (t *WriteFileTool) Name() string { return "write_file" }

func (t *WriteFileTool) Description() string {
	return "Writes content to a file, replacing anything already there. Args: path (string), content (string)."
}

func (t *WriteFileTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	path, err := stringArg(args, "path")
	if err != nil {
		return "", err
	}
	content, ok := args["content"].(string)
	if !ok {
		return "", errors.New("missing or invalid 'content' argument")
	}
	if err := guardPath(path, t.fsAccess, true); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", errors.Wrapf(err, "failed to write to file '%s'", path)
	}
	return fmt.Sprintf("Wrote %d bytes to %s", len(content), path), nil
}

// ExecuteCommandTool runs an OS command when it matches the configured
// allowlist. With an empty allowlist every command is refused.
type ExecuteCommandTool struct {
	allowedCommands []string
}

func (t *ExecuteCommandTool) Name() string { return "execute_command" }

func (t *ExecuteCommandTool) Description() string {
	desc := "Executes a shell command. Args: command (string)."
	if len(t.allowedCommands) == 0 {
		return desc + " No commands are currently allowed."
	}
	return fmt.Sprintf("%s Allowed command patterns: %s", desc, strings.Join(t.allowedCommands, ", "))
}

func (t *ExecuteCommandTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	command, err := stringArg(args, "command")
	if err != nil {
		return "", err
	}

	allowed, err := isCommandAllowed(command, t.allowedCommands)
	if err != nil {
		return "", err
	}
	if !allowed {
		return "", errors.New("command '%s' is not in the list of allowed commands", command)
	}

	// No shell interpretation; the command is split on whitespace.
	parts := strings.Fields(command)
	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", errors.Wrapf(err, "command failed. Output:\n%s", string(output))
	}
	return fmt.Sprintf("Command executed successfully. Output:\n%s", string(output)), nil
}
