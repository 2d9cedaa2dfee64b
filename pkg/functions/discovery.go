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

// Discover scans the functions root and returns the metadata of every
// function, sorted by directory order. Directories starting with a dot are
// skipped. A function directory whose metadata file is missing, unparsable,
// or nameless fails the whole scan with an error naming the id.
func (e *Engine) Discover() ([]Metadata, error) {
	entries, err := os.ReadDir(e.srcDir())
	if err != nil {
		return nil, errors.Wrap(errors.CodeConfiguration,
			fmt.Sprintf("read functions root %s", e.srcDir()), err)
	}

	var out []Metadata
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		meta, err := e.loadMetadata(entry.Name())
		if err != nil {
			return nil, err
		}
		out = append(out, meta)
	}
	return out, nil
}

// Metadata returns one function's metadata.
func (e *Engine) Metadata(id string) (Metadata, error) {
	info, err := os.Stat(filepath.Join(e.srcDir(), id))
	if err != nil || !info.IsDir() {
		return Metadata{}, errors.New(errors.CodeNotFound,
			fmt.Sprintf("function %s not found", id))
	}
	return e.loadMetadata(id)
}

func (e *Engine) loadMetadata(id string) (Metadata, error) {
	path := filepath.Join(e.srcDir(), id, id+".meta.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, errors.Wrap(errors.CodeNotFound,
			fmt.Sprintf("function %s has no metadata file", id), err)
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, errors.Wrap(errors.CodeParse,
			fmt.Sprintf("function %s metadata", id), err)
	}
	if strings.TrimSpace(meta.Name) == "" {
		return Metadata{}, errors.New(errors.CodeParse,
			fmt.Sprintf("function %s metadata has no name", id))
	}
	meta.ID = id
	return meta, nil
}
