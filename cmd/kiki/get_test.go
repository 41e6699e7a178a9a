package main

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestGetCmd(t *testing.T) {
	tmpDir := setupWorkspace(t)
	a := testApp(nil)
	indexSampleFile(t, a, tmpDir)

	out, err := runCommand(t, a, "get", "lesson1_2_0")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if !strings.Contains(out, "男の人は何を注文しましたか。") {
		t.Errorf("expected question text, got %q", out)
	}
	if !strings.Contains(out, "1. ラーメン") {
		t.Errorf("expected numbered options, got %q", out)
	}
}

func TestGetCmdMissing(t *testing.T) {
	setupWorkspace(t)

	if _, err := runCommand(t, testApp(nil), "get", "nope_2_0"); err == nil {
		t.Error("expected error for unknown id")
	}
}

func TestGetCmdJSON(t *testing.T) {
	tmpDir := setupWorkspace(t)
	a := testApp(nil)
	indexSampleFile(t, a, tmpDir)

	out, err := runCommand(t, a, "get", "lesson1_2_1", "--json")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(out), &entry); err != nil {
		t.Fatalf("unmarshal output: %v\n%s", err, out)
	}
	if entry["id"] != "lesson1_2_1" {
		t.Errorf("id = %v", entry["id"])
	}
	if entry["source_id"] != "lesson1" {
		t.Errorf("source_id = %v", entry["source_id"])
	}
	if entry["section"] != float64(2) {
		t.Errorf("section = %v", entry["section"])
	}
}
