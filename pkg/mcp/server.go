// Copyright 2026 © The Ergon Authors
// SPDX-License-Identifier: Apache-2.0

// Package mcp exposes runtime tools over the Model Context Protocol on
// stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jllopis/ergon/pkg/errors"
)

// ToolHandler executes one tool call with decoded JSON arguments.
type ToolHandler func(ctx context.Context, args map[string]any) (any, error)

// Server wraps the mcp-go stdio server.
type Server struct {
	mcpServer *server.MCPServer
	tools     []string
}

// NewServer creates an MCP server advertising tool capabilities.
func NewServer(name, version string) *Server {
	return &Server{
		mcpServer: server.NewMCPServer(name, version,
			server.WithToolCapabilities(true),
			server.WithRecovery(),
		),
	}
}

// RegisterTool adds one tool. The schema is the JSON-schema object for the
// tool's arguments; the handler's result is serialized as the tool output.
// Handler errors come back to the client as tool errors, not protocol
// errors.
func (s *Server) RegisterTool(name, description string, schema map[string]any, handler ToolHandler) error {
	raw, err := json.Marshal(schema)
	if err != nil {
		return errors.Wrap(errors.CodeInternal,
			fmt.Sprintf("encode schema for tool %s", name), err)
	}
	tool := mcp.NewToolWithRawSchema(name, description, raw)
	s.mcpServer.AddTool(tool, adaptHandler(handler))
	s.tools = append(s.tools, name)
	return nil
}

// Tools returns the registered tool names, sorted.
func (s *Server) Tools() []string {
	names := make([]string, len(s.tools))
	copy(names, s.tools)
	sort.Strings(names)
	return names
}

// ServeStdio blocks serving the MCP protocol on stdin and stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func adaptHandler(handler ToolHandler) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := request.Params.Arguments.(map[string]any)
		out, err := handler(ctx, args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		result, err := mcp.NewToolResultJSON(out)
		if err != nil {
			return nil, errors.Wrap(errors.CodeInternal, "encode tool result", err)
		}
		return result, nil
	}
}
