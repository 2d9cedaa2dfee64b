package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jllopis/ergon/pkg/functions"
)

func TestParseParams(t *testing.T) {
	decoded, err := parseParams(`{"city":"Oslo","days":3}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if decoded["city"] != "Oslo" || decoded["days"] != float64(3) {
		t.Fatalf("unexpected params: %v", decoded)
	}
}

func TestParseParamsEmpty(t *testing.T) {
	decoded, err := parseParams("  ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if decoded != nil {
		t.Fatalf("expected nil params, got %v", decoded)
	}
}

func TestParseParamsInvalid(t *testing.T) {
	if _, err := parseParams("{oops"); err == nil {
		t.Fatal("expected an error")
	}
}

func TestCreateRequestFromFlags(t *testing.T) {
	req, err := createRequest("", "Get Weather", "Fetches weather", "tools", "weather,forecast")
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if req.Name != "Get Weather" || req.Description != "Fetches weather" {
		t.Fatalf("unexpected request: %+v", req)
	}
	if len(req.Category) != 1 || req.Category[0] != "tools" {
		t.Fatalf("unexpected category: %v", req.Category)
	}
	if len(req.Tags) != 2 {
		t.Fatalf("unexpected tags: %v", req.Tags)
	}
}

func TestCreateRequestRequiresNameOrFile(t *testing.T) {
	if _, err := createRequest("", "", "", "", ""); err == nil {
		t.Fatal("expected an error")
	}
}

func TestCreateRequestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fn.yaml")
	spec := `name: Convert Currency
description: Converts between currencies
category: finance
tags:
  - currency
input:
  - name: amount
    type: number
    description: Amount to convert
`
	if err := os.WriteFile(path, []byte(spec), 0o644); err != nil {
		t.Fatalf("write spec: %v", err)
	}

	req, err := createRequest(path, "", "", "", "")
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if req.Name != "Convert Currency" {
		t.Fatalf("unexpected name: %q", req.Name)
	}
	if functions.DeriveID(req.Name) != "convert-currency" {
		t.Fatalf("unexpected id: %q", functions.DeriveID(req.Name))
	}
	if len(req.Input) != 1 || req.Input[0].Name != "amount" {
		t.Fatalf("unexpected input: %+v", req.Input)
	}
}
