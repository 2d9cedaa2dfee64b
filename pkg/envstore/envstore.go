// Copyright 2026 © The Ergon Authors
// SPDX-License-Identifier: Apache-2.0

// Package envstore persists flat key/value configuration as a file of
// KEY="value" lines. The file is owned by the store: rewrites normalize
// quoting and do not preserve comments or blank lines.
package envstore

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"github.com/jllopis/ergon/pkg/errors"
)

// DefaultSensitiveSuffixes marks keys whose values are masked when a search
// runs with censoring enabled.
var DefaultSensitiveSuffixes = []string{
	"_KEY", "_SECRET", "_PASSWORD", "_TOKEN", "_CREDENTIALS",
}

var envLine = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)=(.*)$`)

var keyName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Entry is one key/value pair returned by Search.
type Entry struct {
	Key   string
	Value string
}

// Store reads and writes one env file. Mutations are whole-file
// read-modify-write, serialized across goroutines with a mutex and across
// processes with a flock sidecar (<path>.lock).
type Store struct {
	mu       sync.Mutex
	path     string
	flk      *flock.Flock
	suffixes []string
}

// Option configures a Store.
type Option func(*Store)

// WithSensitiveSuffixes replaces the censoring suffix set.
func WithSensitiveSuffixes(suffixes ...string) Option {
	return func(s *Store) {
		s.suffixes = suffixes
	}
}

// New creates a store over the env file at path. The file does not need to
// exist yet; a missing file reads as empty.
func New(path string, opts ...Option) *Store {
	s := &Store{
		path:     path,
		flk:      flock.New(path + ".lock"),
		suffixes: DefaultSensitiveSuffixes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Read parses the whole file into a map. Lines that do not match the
// KEY=value shape are skipped; one layer of surrounding quotes is stripped
// from each value.
func (s *Store) Read() (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.flk.RLock(); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, "lock env file", err)
	}
	defer s.flk.Unlock()
	return s.readLocked()
}

func (s *Store) readLocked() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, errors.Wrap(errors.CodeInternal,
			fmt.Sprintf("read env file %s", s.path), err)
	}

	values := make(map[string]string)
	for _, line := range strings.Split(string(raw), "\n") {
		m := envLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		values[m[1]] = unquote(m[2])
	}
	return values, nil
}

// Write replaces the file with the given map, one KEY="value" line per
// entry in key order.
func (s *Store) Write(values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.flk.Lock(); err != nil {
		return errors.Wrap(errors.CodeInternal, "lock env file", err)
	}
	defer s.flk.Unlock()
	return s.writeLocked(values)
}

func (s *Store) writeLocked(values map[string]string) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(quote(values[k]))
		b.WriteString("\n")
	}
	if err := os.WriteFile(s.path, []byte(b.String()), 0o600); err != nil {
		return errors.Wrap(errors.CodeInternal,
			fmt.Sprintf("write env file %s", s.path), err)
	}
	return nil
}

// Get returns the stored value for key and whether it was present.
func (s *Store) Get(key string) (string, bool, error) {
	values, err := s.Read()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

// Set stores key=value, rewriting the whole file, and mirrors the pair into
// the current process environment so dependent services see it immediately.
func (s *Store) Set(key, value string) error {
	if !keyName.MatchString(key) {
		return errors.New(errors.CodeInvalidInput,
			fmt.Sprintf("invalid env key %q", key))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.flk.Lock(); err != nil {
		return errors.Wrap(errors.CodeInternal, "lock env file", err)
	}
	defer s.flk.Unlock()

	values, err := s.readLocked()
	if err != nil {
		return err
	}
	values[key] = value
	if err := s.writeLocked(values); err != nil {
		return err
	}
	if err := os.Setenv(key, value); err != nil {
		return errors.Wrap(errors.CodeInternal,
			fmt.Sprintf("mirror %s into process env", key), err)
	}
	return nil
}

// Search returns entries whose key or value contains keyword
// (case-insensitive; empty keyword matches all), sorted by key. With censor
// set, values under sensitive keys are masked.
func (s *Store) Search(keyword string, censor bool) ([]Entry, error) {
	values, err := s.Read()
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(keyword)
	entries := make([]Entry, 0, len(values))
	for k, v := range values {
		if needle != "" &&
			!strings.Contains(strings.ToLower(k), needle) &&
			!strings.Contains(strings.ToLower(v), needle) {
			continue
		}
		if censor && s.sensitive(k) {
			v = maskValue(v)
		}
		entries = append(entries, Entry{Key: k, Value: v})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

func (s *Store) sensitive(key string) bool {
	upper := strings.ToUpper(key)
	for _, suffix := range s.suffixes {
		if strings.HasSuffix(upper, suffix) {
			return true
		}
	}
	return false
}

// maskValue keeps the first max(1, floor(len*5%)) characters and replaces
// the rest with '*'.
func maskValue(v string) string {
	if v == "" {
		return v
	}
	keep := len(v) / 20
	if keep < 1 {
		keep = 1
	}
	if keep >= len(v) {
		return v
	}
	return v[:keep] + strings.Repeat("*", len(v)-keep)
}

func quote(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
}

func unquote(v string) string {
	if len(v) >= 2 {
		switch {
		case v[0] == '"' && v[len(v)-1] == '"':
			return strings.ReplaceAll(v[1:len(v)-1], `\"`, `"`)
		case v[0] == '\'' && v[len(v)-1] == '\'':
			return v[1 : len(v)-1]
		}
	}
	return v
}
