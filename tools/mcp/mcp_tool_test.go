package mcp

import (
	"context"
	"testing"
)

func TestNewMCPClientMissingCommand(t *testing.T) {
	// A misconfigured server command must surface as an error, not a panic.
	_, err := NewMCPClient(context.Background(), "clockify", "/nonexistent/clockify-server", []string{"server.py"}, nil)
	if err == nil {
		t.Fatal("Expected an error for a command that cannot be launched")
	}
}

func TestNewMCPClientMissingInterpreterScript(t *testing.T) {
	_, err := NewMCPClient(context.Background(), "clockify", "/usr/bin/does-not-exist-python3", []string{"/path/that/is/missing.py"}, nil)
	if err == nil {
		t.Fatal("Expected an error for a missing interpreter")
	}
}
