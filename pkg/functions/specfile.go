// Copyright 2026 © The Ergon Authors
// SPDX-License-Identifier: Apache-2.0

package functions

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jllopis/ergon/pkg/errors"
)

// SpecFile is a YAML function definition: the metadata fields plus an
// optional inline code block. Used by `ergon functions create --file`.
type SpecFile struct {
	Name            string   `yaml:"name"`
	Category        Category `yaml:"category"`
	Description     string   `yaml:"description"`
	Tags            []string `yaml:"tags"`
	RequiredEnvVars []string `yaml:"requiredEnvVars"`
	Input           []Param  `yaml:"input"`
	Output          []Param  `yaml:"output"`
	Code            string   `yaml:"code"`
}

// UnmarshalYAML accepts both the plain-string and the list form of the
// category field, mirroring the JSON behavior.
func (c *Category) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*c = Category{s}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*c = Category(list)
		return nil
	default:
		return fmt.Errorf("category must be a string or a list of strings")
	}
}

// LoadSpecFile parses a YAML function definition into a creation request.
func LoadSpecFile(path string) (CreateRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CreateRequest{}, errors.Wrap(errors.CodeInvalidInput,
			fmt.Sprintf("read function definition %s", path), err)
	}

	var spec SpecFile
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return CreateRequest{}, errors.Wrap(errors.CodeParse,
			fmt.Sprintf("parse function definition %s", path), err)
	}
	if strings.TrimSpace(spec.Name) == "" {
		return CreateRequest{}, errors.New(errors.CodeInvalidInput,
			fmt.Sprintf("function definition %s has no name", path))
	}

	return CreateRequest{
		Name:            spec.Name,
		Category:        spec.Category,
		Description:     spec.Description,
		Tags:            spec.Tags,
		RequiredEnvVars: spec.RequiredEnvVars,
		Input:           spec.Input,
		Output:          spec.Output,
		Code:            spec.Code,
	}, nil
}
