// The clockify-mcp command serves the Clockify tools over MCP on stdio. It
// is the first-party tool server for the agent; point server_script at a
// different implementation to swap it out, or configure this binary directly
// under mcp_servers.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aslamanver/mcp-clockify/clockify"
	"github.com/aslamanver/mcp-clockify/clockify/mcpserver"
	"github.com/aslamanver/mcp-clockify/config"
)

func main() {
	baseURL := flag.String("base-url", "", "Clockify API base URL (defaults to the public endpoint)")
	flag.Parse()

	apiKey := os.Getenv("CLOCKIFY_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "CLOCKIFY_API_KEY environment variable not set")
		os.Exit(1)
	}

	url := *baseURL
	if url == "" {
		if cfg, err := config.LoadConfig(); err == nil {
			url = cfg.Clockify.BaseURL
		}
	}

	api := clockify.NewClient(url, apiKey)
	server := mcpserver.New(api)

	if err := server.Run(context.Background(), mcpsdk.NewStdioTransport()); err != nil {
		fmt.Fprintf(os.Stderr, "MCP server stopped with an error: %+v\n", err)
		os.Exit(1)
	}
}
