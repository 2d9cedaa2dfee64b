// Copyright 2026 © The Ergon Authors
// SPDX-License-Identifier: Apache-2.0

package functions

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jllopis/ergon/pkg/errors"
)

// CreateRequest describes a function to create. Code, when set, becomes the
// entry file verbatim; otherwise a TypeScript stub is generated from the
// declared inputs and outputs.
type CreateRequest struct {
	Name            string
	Category        Category
	Description     string
	Tags            []string
	RequiredEnvVars []string
	Input           []Param
	Output          []Param
	Code            string
}

// DeriveID converts a human function name into its kebab-case id: lowercase,
// non-alphanumeric runs collapsed to one hyphen, no leading or trailing
// hyphen.
func DeriveID(name string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		default:
			pendingHyphen = true
		}
	}
	return b.String()
}

// Create materializes a new function on disk: a directory named by the
// derived id holding the metadata file and the entry code file. An existing
// id fails the call and leaves the existing function untouched.
func (e *Engine) Create(req CreateRequest) (Metadata, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return Metadata{}, errors.New(errors.CodeInvalidInput, "function name is required")
	}
	id := DeriveID(name)
	if id == "" {
		return Metadata{}, errors.New(errors.CodeInvalidInput,
			fmt.Sprintf("name %q yields an empty function id", name))
	}

	if err := os.MkdirAll(e.srcDir(), 0o755); err != nil {
		return Metadata{}, errors.Wrap(errors.CodeInternal, "create functions root", err)
	}

	// Mkdir doubles as the existence check: exactly one concurrent creator
	// of an id can win it.
	fnDir := filepath.Join(e.srcDir(), id)
	if err := os.Mkdir(fnDir, 0o755); err != nil {
		if os.IsExist(err) {
			return Metadata{}, errors.New(errors.CodeInvalidInput,
				fmt.Sprintf("function %s already exists", id))
		}
		return Metadata{}, errors.Wrap(errors.CodeInternal,
			fmt.Sprintf("create function directory %s", id), err)
	}

	meta := Metadata{
		ID:              id,
		Name:            name,
		Category:        req.Category,
		Description:     req.Description,
		Tags:            req.Tags,
		RequiredEnvVars: req.RequiredEnvVars,
		Input:           req.Input,
		Output:          req.Output,
	}

	// The file never stores the id: the directory name is the id.
	fileMeta := meta
	fileMeta.ID = ""
	data, err := json.MarshalIndent(fileMeta, "", "  ")
	if err != nil {
		os.RemoveAll(fnDir)
		return Metadata{}, errors.Wrap(errors.CodeInternal, "encode metadata", err)
	}
	if err := os.WriteFile(filepath.Join(fnDir, id+".meta.json"), append(data, '\n'), 0o644); err != nil {
		os.RemoveAll(fnDir)
		return Metadata{}, errors.Wrap(errors.CodeInternal, "write metadata", err)
	}

	code := req.Code
	if code == "" {
		code = generateStub(id, meta)
	}
	if err := os.WriteFile(filepath.Join(fnDir, id+".ts"), []byte(code), 0o644); err != nil {
		os.RemoveAll(fnDir)
		return Metadata{}, errors.Wrap(errors.CodeInternal, "write entry code", err)
	}

	e.log.Info("ergon.functions.created", "function", id)
	return meta, nil
}

var tsTypes = map[string]string{
	"string":  "string",
	"number":  "number",
	"integer": "number",
	"boolean": "boolean",
	"object":  "Record<string, unknown>",
	"array":   "unknown[]",
}

func tsType(declared string) string {
	if t, ok := tsTypes[strings.ToLower(strings.TrimSpace(declared))]; ok {
		return t
	}
	return "unknown"
}

func camelCase(id string) string {
	parts := strings.Split(id, "-")
	for i := 1; i < len(parts); i++ {
		parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
	}
	return strings.Join(parts, "")
}

// generateStub emits a TypeScript entry file whose signature mirrors the
// declared input parameters and the first declared output type.
func generateStub(id string, meta Metadata) string {
	var b strings.Builder
	b.WriteString("type Input = {\n")
	for _, p := range meta.Input {
		optional := ""
		if p.DefaultValue != nil {
			optional = "?"
		}
		fmt.Fprintf(&b, "  %s%s: %s;\n", p.Name, optional, tsType(p.Type))
	}
	b.WriteString("};\n\n")

	returnType := "void"
	if len(meta.Output) > 0 {
		returnType = tsType(meta.Output[0].Type)
	}
	fmt.Fprintf(&b, "export default async function %s(input: Input): Promise<%s> {\n",
		camelCase(id), returnType)
	b.WriteString("  throw new Error(\"not implemented\");\n")
	b.WriteString("}\n")
	return b.String()
}
