// Copyright 2026 © The Ergon Authors
// SPDX-License-Identifier: Apache-2.0

package functions

import "testing"

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
		found bool
	}{
		{
			name:  "bare object",
			input: `{"a":1}`,
			want:  `{"a":1}`,
			found: true,
		},
		{
			name:  "noise before and after",
			input: "noise\n{\"a\":1}\ntrailer",
			want:  `{"a":1}`,
			found: true,
		},
		{
			name:  "nested braces",
			input: `log line {"a":{"b":[1,2,{"c":3}]}} done`,
			want:  `{"a":{"b":[1,2,{"c":3}]}}`,
			found: true,
		},
		{
			name:  "braces inside strings",
			input: `junk {"msg":"has } and { inside"} tail`,
			want:  `{"msg":"has } and { inside"}`,
			found: true,
		},
		{
			name:  "escaped quotes inside strings",
			input: `x {"msg":"say \"hi\" {"} y`,
			want:  `{"msg":"say \"hi\" {"}`,
			found: true,
		},
		{
			name:  "array value",
			input: "warming up\n[1,2,3]",
			want:  `[1,2,3]`,
			found: true,
		},
		{
			name:  "invalid candidate then valid",
			input: `{oops} {"ok":true}`,
			want:  `{"ok":true}`,
			found: true,
		},
		{
			name:  "unterminated region",
			input: `{"a":1`,
			found: false,
		},
		{
			name:  "mismatched nesting",
			input: `{]`,
			found: false,
		},
		{
			name:  "no json at all",
			input: "hello world",
			found: false,
		},
		{
			name:  "empty input",
			input: "",
			found: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, found := extractJSON(tc.input)
			if found != tc.found {
				t.Fatalf("extractJSON(%q) found=%v, want %v", tc.input, found, tc.found)
			}
			if found && got != tc.want {
				t.Fatalf("extractJSON(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}
