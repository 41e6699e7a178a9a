package main

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSearchCmd(t *testing.T) {
	tmpDir := setupWorkspace(t)
	a := testApp(nil)
	indexSampleFile(t, a, tmpDir)

	out, err := runCommand(t, a, "search", "ラーメンを注文する")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if !strings.Contains(out, "lesson1_2_0") || !strings.Contains(out, "lesson1_2_1") {
		t.Errorf("expected both stored ids in results, got %q", out)
	}
}

func TestSearchCmdEmptyStore(t *testing.T) {
	setupWorkspace(t)
	a := testApp(nil)

	out, err := runCommand(t, a, "search", "anything")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if strings.TrimSpace(out) != "" {
		t.Errorf("expected empty output for empty store, got %q", out)
	}
}

func TestSearchCmdInvalidSection(t *testing.T) {
	setupWorkspace(t)

	if _, err := runCommand(t, testApp(nil), "search", "anything", "--section", "5"); err == nil {
		t.Error("expected error for invalid section")
	}
}

func TestSearchCmdJSON(t *testing.T) {
	tmpDir := setupWorkspace(t)
	a := testApp(nil)
	indexSampleFile(t, a, tmpDir)

	out, err := runCommand(t, a, "search", "電車", "--json", "-n", "1")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	var hits []map[string]any
	if err := json.Unmarshal([]byte(out), &hits); err != nil {
		t.Fatalf("unmarshal output: %v\n%s", err, out)
	}
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
	for _, key := range []string{"id", "distance", "conversation", "question", "options"} {
		if _, ok := hits[0][key]; !ok {
			t.Errorf("hit missing %q key: %v", key, hits[0])
		}
	}
}
