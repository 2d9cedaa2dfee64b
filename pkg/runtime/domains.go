// Copyright 2026 © The Ergon Authors
// SPDX-License-Identifier: Apache-2.0

package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jllopis/ergon/pkg/errors"
	"github.com/jllopis/ergon/pkg/functions"
)

// ToolHandler executes one tool call. Arguments arrive as decoded JSON.
type ToolHandler func(ctx context.Context, args map[string]any) (any, error)

// Tool is one operation a domain exposes over MCP.
type Tool struct {
	Name        string
	Description string
	Schema      map[string]any
	Handler     ToolHandler
}

// domainTable is the single source of truth for which tools exist and how
// they group. There is no runtime path-based lookup.
var domainTable = map[string]func(b *Bundle) []Tool{
	"functions": functionTools,
	"memory":    memoryTools,
	"env":       envTools,
	"shell":     shellTools,
}

// DomainNames lists the known domains, sorted.
func DomainNames() []string {
	names := make([]string, 0, len(domainTable))
	for name := range domainTable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Domains returns the tools for the named domains, in the order given.
// Unknown names fail the whole call.
func (b *Bundle) Domains(names []string) ([]Tool, error) {
	var tools []Tool
	for _, name := range names {
		build, ok := domainTable[name]
		if !ok {
			return nil, errors.New(errors.CodeConfiguration,
				fmt.Sprintf("unknown tool domain %q", name))
		}
		tools = append(tools, build(b)...)
	}
	return tools, nil
}

func functionTools(b *Bundle) []Tool {
	return []Tool{
		{
			Name:        "functions_search",
			Description: "Semantically search the available functions by intent.",
			Schema: objectSchema(map[string]any{
				"query": map[string]any{"type": "string", "description": "What the function should do."},
				"limit": map[string]any{"type": "integer", "description": "Maximum results, default 10."},
			}, "query"),
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				return b.functions.Search(ctx, stringArg(args, "query"), uintArg(args, "limit"))
			},
		},
		{
			Name:        "functions_execute",
			Description: "Execute a function by id with a JSON parameter object.",
			Schema: objectSchema(map[string]any{
				"id":     map[string]any{"type": "string", "description": "Function id (directory name)."},
				"params": map[string]any{"type": "object", "description": "Parameters passed to the function."},
			}, "id"),
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				params, _ := args["params"].(map[string]any)
				return b.functions.Execute(ctx, stringArg(args, "id"), params)
			},
		},
		{
			Name:        "functions_list",
			Description: "List every available function with its metadata.",
			Schema:      objectSchema(map[string]any{}),
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				return b.functions.List(ctx)
			},
		},
		{
			Name:        "functions_create",
			Description: "Create a new function from a definition: name, description, tags, input and output parameters, and optional code.",
			Schema: objectSchema(map[string]any{
				"name":            map[string]any{"type": "string", "description": "Human name; the id is derived from it."},
				"category":        map[string]any{"description": "Category string or list of strings."},
				"description":     map[string]any{"type": "string"},
				"tags":            map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				"requiredEnvVars": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				"input":           map[string]any{"type": "array", "description": "Input parameter declarations."},
				"output":          map[string]any{"type": "array", "description": "Output declarations."},
				"code":            map[string]any{"type": "string", "description": "Entry file contents; a stub is generated when omitted."},
			}, "name"),
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				req, err := createRequestFromArgs(args)
				if err != nil {
					return nil, err
				}
				return b.functions.Create(ctx, req)
			},
		},
	}
}

func memoryTools(b *Bundle) []Tool {
	return []Tool{
		{
			Name:        "memory_remember",
			Description: "Store a text memory, optionally under a caller-chosen id with metadata.",
			Schema: objectSchema(map[string]any{
				"text":     map[string]any{"type": "string", "description": "The memory text."},
				"id":       map[string]any{"type": "string", "description": "Stable id; generated when omitted."},
				"metadata": map[string]any{"type": "object", "description": "Arbitrary metadata stored with the memory."},
			}, "text"),
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				metadata, _ := args["metadata"].(map[string]any)
				id, err := b.memories.Remember(ctx, stringArg(args, "id"), stringArg(args, "text"), metadata)
				if err != nil {
					return nil, err
				}
				return map[string]any{"id": id}, nil
			},
		},
		{
			Name:        "memory_recall",
			Description: "Semantically recall stored memories matching a query.",
			Schema: objectSchema(map[string]any{
				"query":     map[string]any{"type": "string"},
				"limit":     map[string]any{"type": "integer", "description": "Maximum results, default 10."},
				"threshold": map[string]any{"type": "number", "description": "Minimum similarity score."},
			}, "query"),
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				return b.memories.Recall(ctx, stringArg(args, "query"), uintArg(args, "limit"), floatPtrArg(args, "threshold"))
			},
		},
		{
			Name:        "memory_forget",
			Description: "Delete a memory by id.",
			Schema: objectSchema(map[string]any{
				"id": map[string]any{"type": "string"},
			}, "id"),
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				if err := b.memories.Forget(ctx, stringArg(args, "id")); err != nil {
					return nil, err
				}
				return map[string]any{"forgotten": true}, nil
			},
		},
	}
}

func envTools(b *Bundle) []Tool {
	return []Tool{
		{
			Name:        "env_get",
			Description: "Read one value from the env file.",
			Schema: objectSchema(map[string]any{
				"key": map[string]any{"type": "string"},
			}, "key"),
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				key := stringArg(args, "key")
				value, ok, err := b.env.Get(key)
				if err != nil {
					return nil, err
				}
				if !ok {
					return nil, errors.New(errors.CodeNotFound,
						fmt.Sprintf("env key not set: %s", key))
				}
				return map[string]any{"key": key, "value": value}, nil
			},
		},
		{
			Name:        "env_set",
			Description: "Write one key to the env file, preserving the other entries.",
			Schema: objectSchema(map[string]any{
				"key":   map[string]any{"type": "string"},
				"value": map[string]any{"type": "string"},
			}, "key", "value"),
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				key := stringArg(args, "key")
				if err := b.env.Set(key, stringArg(args, "value")); err != nil {
					return nil, err
				}
				return map[string]any{"key": key, "written": true}, nil
			},
		},
		{
			Name:        "env_search",
			Description: "Search env keys by keyword. Values are censored unless censor is false.",
			Schema: objectSchema(map[string]any{
				"keyword": map[string]any{"type": "string"},
				"censor":  map[string]any{"type": "boolean", "description": "Defaults to true."},
			}, "keyword"),
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				return b.env.Search(stringArg(args, "keyword"), boolArg(args, "censor", true))
			},
		},
	}
}

func shellTools(b *Bundle) []Tool {
	return []Tool{
		{
			Name:        "shell_execute",
			Description: "Run a command in the persistent shell session and return its merged output and exit code.",
			Schema: objectSchema(map[string]any{
				"command": map[string]any{"type": "string"},
			}, "command"),
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				return b.shell.Execute(ctx, stringArg(args, "command"))
			},
		},
		{
			Name:        "shell_history",
			Description: "List the commands completed in the current shell session.",
			Schema:      objectSchema(map[string]any{}),
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				return b.shell.History(), nil
			},
		},
		{
			Name:        "shell_interrupt",
			Description: "Kill the running command and its process group; the next command gets a fresh session.",
			Schema:      objectSchema(map[string]any{}),
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				b.shell.Interrupt()
				return map[string]any{"interrupted": true}, nil
			},
		},
	}
}

// createRequestFromArgs decodes the raw tool arguments into a CreateRequest
// through a JSON round trip, which honors the Category string-or-list form.
func createRequestFromArgs(args map[string]any) (functions.CreateRequest, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return functions.CreateRequest{}, errors.Wrap(errors.CodeInvalidInput, "encode create arguments", err)
	}
	var req functions.CreateRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return functions.CreateRequest{}, errors.Wrap(errors.CodeInvalidInput, "decode create arguments", err)
	}
	return req, nil
}

func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func boolArg(args map[string]any, key string, def bool) bool {
	v, ok := args[key].(bool)
	if !ok {
		return def
	}
	return v
}

// uintArg reads a JSON number argument. Decoded JSON numbers are float64.
func uintArg(args map[string]any, key string) uint64 {
	f, ok := args[key].(float64)
	if !ok || f < 0 {
		return 0
	}
	return uint64(f)
}

func floatPtrArg(args map[string]any, key string) *float32 {
	f, ok := args[key].(float64)
	if !ok {
		return nil
	}
	v := float32(f)
	return &v
}
