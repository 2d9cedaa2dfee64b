// Copyright 2026 © The Ergon Authors
// SPDX-License-Identifier: Apache-2.0

package functions

import "encoding/json"

// extractJSON finds the first balanced JSON object or array region inside s,
// tolerating arbitrary noise before and after it. Function processes are
// allowed to emit incidental log lines around their single JSON result; this
// scan recovers the result from such output.
//
// The scan starts at each '{' or '[' in order and tracks brace/bracket depth
// while skipping string literals (escape-aware), so braces inside strings
// never count. A region is a candidate once depth returns to zero; the first
// candidate that is valid JSON wins. The bool reports whether one was found.
func extractJSON(s string) (string, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] != '{' && s[i] != '[' {
			continue
		}
		end, ok := scanBalanced(s, i)
		if !ok {
			continue
		}
		candidate := s[i : end+1]
		if json.Valid([]byte(candidate)) {
			return candidate, true
		}
	}
	return "", false
}

// scanBalanced returns the index of the byte that closes the region opening
// at start, or false when the region never closes.
func scanBalanced(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i, true
			}
			if depth < 0 {
				return 0, false
			}
		}
	}
	return 0, false
}
