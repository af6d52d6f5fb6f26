package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	cfgDir := filepath.Join(dir, ConfigDirName)
	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		t.Fatalf("Failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
}

func TestLoadConfigEmpty(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if len(cfg.Servers()) != 0 {
		t.Errorf("Expected no servers, got %v", cfg.Servers())
	}
	// The dot-directory must always be hidden from the built-in tools.
	found := false
	for _, p := range cfg.FilesystemAccess.Hidden {
		if p == ConfigDirName {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected %s in hidden patterns, got %v", ConfigDirName, cfg.FilesystemAccess.Hidden)
	}
}

func TestLoadConfigProjectOverridesUser(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(project)

	writeConfig(t, home, "llm: gemini\nmodel: gemini-2.0-flash\nserver_script: /home/server.py\n")
	writeConfig(t, project, "model: gemini-2.5-pro\n")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.LLMClient != "gemini" {
		t.Errorf("Expected llm 'gemini' from user config, got '%s'", cfg.LLMClient)
	}
	if cfg.Model != "gemini-2.5-pro" {
		t.Errorf("Expected project model override, got '%s'", cfg.Model)
	}
	if cfg.ServerScript != "/home/server.py" {
		t.Errorf("Expected server_script from user config, got '%s'", cfg.ServerScript)
	}
}

func TestServersMergesScriptAndExplicit(t *testing.T) {
	cfg := &Config{
		ServerScript: "/opt/server.py",
		MCPServers: []MCPServer{
			{Name: "clockify-go", Command: "./clockify-mcp"},
		},
	}

	servers := cfg.Servers()
	if len(servers) != 2 {
		t.Fatalf("Expected 2 servers, got %d", len(servers))
	}
	if servers[0].Name != "clockify" || servers[0].Command != "python3" {
		t.Errorf("Unexpected script server: %+v", servers[0])
	}
	if len(servers[0].Args) != 1 || servers[0].Args[0] != "/opt/server.py" {
		t.Errorf("Unexpected script server args: %v", servers[0].Args)
	}
	if servers[1].Name != "clockify-go" {
		t.Errorf("Unexpected explicit server: %+v", servers[1])
	}
}

func TestGetToolset(t *testing.T) {
	cfg := &Config{
		Toolsets: []Toolset{
			{Name: "default", Tools: []string{"clockify:*"}},
			{Name: "readonly", Tools: []string{"clockify:list_time_entries"}},
		},
	}

	ts, err := cfg.GetToolset("")
	if err != nil {
		t.Fatalf("GetToolset failed: %v", err)
	}
	if ts.Name != "default" {
		t.Errorf("Expected 'default' toolset, got '%s'", ts.Name)
	}

	ts, err = cfg.GetToolset("readonly")
	if err != nil {
		t.Fatalf("GetToolset failed: %v", err)
	}
	if ts.Name != "readonly" {
		t.Errorf("Expected 'readonly' toolset, got '%s'", ts.Name)
	}

	// Unknown names fall back to default.
	ts, err = cfg.GetToolset("nope")
	if err != nil {
		t.Fatalf("GetToolset failed: %v", err)
	}
	if ts.Name != "default" {
		t.Errorf("Expected fallback to 'default', got '%s'", ts.Name)
	}
}

func TestGetToolsetNoneConfigured(t *testing.T) {
	cfg := &Config{}
	ts, err := cfg.GetToolset("")
	if err != nil {
		t.Fatalf("GetToolset failed: %v", err)
	}
	if ts != nil {
		t.Errorf("Expected nil toolset when none configured, got %+v", ts)
	}
}

func TestGetToolsetMissingDefault(t *testing.T) {
	cfg := &Config{
		Toolsets: []Toolset{{Name: "custom", Tools: []string{"read_file"}}},
	}
	if _, err := cfg.GetToolset(""); err == nil {
		t.Error("Expected error when 'default' toolset is missing")
	}
}
