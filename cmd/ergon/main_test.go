package main

import (
	"reflect"
	"testing"
)

func TestParseGlobalFlags(t *testing.T) {
	flags, rest, err := parseGlobalFlags([]string{"--json", "--config", "a.yaml", "functions", "list"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !flags.JSON {
		t.Fatal("expected JSON flag")
	}
	if want := []string{"--config", "a.yaml"}; !reflect.DeepEqual(flags.ConfigArgs, want) {
		t.Fatalf("expected %v, got %v", want, flags.ConfigArgs)
	}
	if want := []string{"functions", "list"}; !reflect.DeepEqual(rest, want) {
		t.Fatalf("expected %v, got %v", want, rest)
	}
}

func TestParseGlobalFlagsSetOverride(t *testing.T) {
	flags, rest, err := parseGlobalFlags([]string{"--set", "log.level=debug", "--set=vector.provider=memory", "status"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []string{"--set", "log.level=debug", "--set=vector.provider=memory"}
	if !reflect.DeepEqual(flags.ConfigArgs, want) {
		t.Fatalf("expected %v, got %v", want, flags.ConfigArgs)
	}
	if len(rest) != 1 || rest[0] != "status" {
		t.Fatalf("unexpected rest: %v", rest)
	}
}

func TestParseGlobalFlagsDoubleDash(t *testing.T) {
	_, rest, err := parseGlobalFlags([]string{"--json", "--", "--not-a-flag"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rest) != 1 || rest[0] != "--not-a-flag" {
		t.Fatalf("unexpected rest: %v", rest)
	}
}

func TestParseGlobalFlagsUnknown(t *testing.T) {
	_, _, err := parseGlobalFlags([]string{"--bogus"})
	if err == nil {
		t.Fatal("expected an error for unknown flag")
	}
}

func TestParseGlobalFlagsMissingValue(t *testing.T) {
	_, _, err := parseGlobalFlags([]string{"--config"})
	if err == nil {
		t.Fatal("expected an error for missing value")
	}
}

func TestSplitList(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b ", []string{"a", "b"}},
		{"", nil},
		{" , ", []string{}},
	}
	for _, tc := range cases {
		got := splitList(tc.in)
		if len(got) == 0 && len(tc.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("splitList(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeCell(t *testing.T) {
	if got := normalizeCell("  "); got != "-" {
		t.Fatalf("expected dash, got %q", got)
	}
	if got := normalizeCell("a\n b\tc"); got != "a b c" {
		t.Fatalf("expected collapsed whitespace, got %q", got)
	}
}

func TestTruncateCell(t *testing.T) {
	if got := truncateCell("abcdefghij", 8); got != "abcde..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if got := truncateCell("abc", 8); got != "abc" {
		t.Fatalf("short values must pass through, got %q", got)
	}
}

func TestHostPort(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"http://localhost:11434", "localhost:11434"},
		{"http://ollama.local", "ollama.local:80"},
		{"https://ollama.local", "ollama.local:443"},
	}
	for _, tc := range cases {
		if got := hostPort(tc.in); got != tc.want {
			t.Fatalf("hostPort(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
