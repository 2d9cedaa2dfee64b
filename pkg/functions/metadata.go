// Copyright 2026 © The Ergon Authors
// SPDX-License-Identifier: Apache-2.0

// Package functions discovers, indexes, executes, and creates functions:
// self-contained capability units living as directories under the functions
// root, each with a metadata file and an entry code file.
package functions

import (
	"encoding/json"
	"fmt"
)

// Category is the metadata category field. The on-disk JSON accepts both a
// plain string and a list of strings; a single-element Category marshals
// back to the plain-string form.
type Category []string

func (c *Category) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*c = Category{single}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("category must be a string or a list of strings")
	}
	*c = Category(list)
	return nil
}

func (c Category) MarshalJSON() ([]byte, error) {
	if len(c) == 1 {
		return json.Marshal(c[0])
	}
	return json.Marshal([]string(c))
}

// Param describes one declared input or output of a function. Outputs leave
// DefaultValue unset.
type Param struct {
	Name         string `json:"name" yaml:"name"`
	Type         string `json:"type" yaml:"type"`
	Description  string `json:"description,omitempty" yaml:"description,omitempty"`
	DefaultValue any    `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty"`
}

// Metadata describes one function. ID is the directory name; it is implicit
// on disk and never stored inside the metadata file.
type Metadata struct {
	// ID is the function's directory name. The metadata file never stores
	// it; discovery fills it in and callers see it in serialized output.
	ID              string   `json:"id,omitempty"`
	Name            string   `json:"name"`
	Category        Category `json:"category,omitempty"`
	Description     string   `json:"description,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	RequiredEnvVars []string `json:"requiredEnvVars,omitempty"`
	Input           []Param  `json:"input,omitempty"`
	Output          []Param  `json:"output,omitempty"`
}
